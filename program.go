package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"git.lost.host/meutraa/tempo/internal/audio"
	"git.lost.host/meutraa/tempo/internal/clock"
	"git.lost.host/meutraa/tempo/internal/config"
	"git.lost.host/meutraa/tempo/internal/difficulty"
	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/input"
	"git.lost.host/meutraa/tempo/internal/parser"
	"git.lost.host/meutraa/tempo/internal/render"
	"git.lost.host/meutraa/tempo/internal/replay"
	"git.lost.host/meutraa/tempo/internal/score"
	"git.lost.host/meutraa/tempo/internal/spectate"
	"git.lost.host/meutraa/tempo/internal/theme"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	engineTick     = time.Millisecond
	actionBuffer   = 128
	snapshotBuffer = 2
)

// Program owns one run of the game: the song, its charts and everything a
// session needs around the engine.
type Program struct {
	Flags      *config.Flags
	Settings   config.Settings
	Scorer     score.Scorer
	Calculator difficulty.Calculator
	Log        logrus.FieldLogger

	song   parser.Song
	charts []*game.Chart
	infos  []difficulty.Info
	chart  *game.Chart
	window game.HitWindow
}

// Outcome is what a finished session produced.
type Outcome struct {
	Chart    *game.Chart
	Replay   *replay.Data
	Result   replay.Result
	ID       string
	Previous []score.History
}

func (p *Program) Init(ctx context.Context) error {
	if nil == p.Log {
		p.Log = logrus.StandardLogger()
	}
	if nil == p.Calculator {
		p.Calculator = difficulty.DensityCalculator{}
	}

	song, err := parser.Locate(p.Flags.Directory)
	if errors.Is(err, parser.ErrNoAudioForSong) {
		p.Log.WithError(err).Warn("playing without audio")
	} else if nil != err {
		return err
	}
	p.song = song

	p.charts, err = parser.Load(song.ChartFile)
	if nil != err {
		return err
	}

	p.window, err = p.Settings.HitWindow()
	if nil != err {
		return err
	}

	p.infos, err = difficulty.AnalyzeAll(ctx, p.Calculator, p.charts, p.Flags.Rate)
	if nil != err {
		return fmt.Errorf("unable to rate charts: %w", err)
	}
	return nil
}

// Charts lists the charts with their difficulty, one per line.
func (p *Program) Charts(w io.Writer) {
	for i, c := range p.charts {
		rating := 0.0
		if i < len(p.infos) {
			rating, _ = p.infos[i].Overall(difficulty.DensityName)
		}
		fmt.Fprintf(w, "%2v) %3v  %6.2f  %5v  %v\n", i, c.Difficulty.Msd, rating, c.NoteCount, c.Difficulty.Name)
	}
}

// Select picks the chart to play.
func (p *Program) Select(index int) error {
	if index < 0 || index >= len(p.charts) {
		return fmt.Errorf("difficulty %d out of range, %d charts", index, len(p.charts))
	}
	p.chart = p.charts[index]
	return nil
}

func (p *Program) ChartCount() int {
	return len(p.charts)
}

// device opens the song audio. A missing or broken file leaves the session
// running on the free running clock.
func (p *Program) device() (clock.Device, func()) {
	if p.song.AudioFile == "" {
		return nil, func() {}
	}
	player, err := audio.Open(p.song.AudioFile, p.Flags.Rate, p.Log)
	if nil != err {
		p.Log.WithError(err).Warn("playing without audio")
		return nil, func() {}
	}
	player.SetVolume(p.Settings.MasterVolume)
	offset := p.Settings.GlobalOffset() + p.Flags.Offset
	return clock.WithOffset(player, offset), func() {
		if err := player.Close(); nil != err {
			p.Log.WithError(err).Warn("unable to close audio")
		}
	}
}

func (p *Program) options(dev clock.Device) engine.Options {
	scroll := p.Settings.ScrollSpeedMs
	if p.Flags.ScrollSpeed > 0 {
		scroll = float64(p.Flags.ScrollSpeed.Milliseconds())
	}
	return engine.Options{
		Rate:          p.Flags.Rate,
		Device:        dev,
		Window:        p.window,
		Practice:      p.Flags.Practice,
		ScrollSpeedMs: scroll,
		Columns:       int(p.chart.Difficulty.NKeys),
		Cooldown:      p.Settings.CheckpointCooldown,
		RetryOffset:   p.Settings.CheckpointRetryOffset,
		Logger:        p.Log,
	}
}

// Play runs the selected chart until it finishes or the player quits, then
// stores the replay. Quitting returns input.ErrQuit and stores nothing.
func (p *Program) Play(ctx context.Context, r render.Renderer) (*Outcome, error) {
	if nil == p.chart {
		return nil, engine.ErrNoChart
	}
	keymap, err := input.KeymapFor(p.chart.Difficulty.NKeys, p.Settings.Keybinds)
	if nil != err {
		return nil, err
	}
	dev, closeDevice := p.device()
	defer closeDevice()

	e, err := engine.New(p.chart, p.options(dev))
	if nil != err {
		return nil, err
	}

	if err := r.Init(); nil != err {
		return nil, err
	}
	if err := p.run(ctx, e, r, keymap); nil != err {
		r.Deinit()
		return nil, err
	}
	if err := r.Deinit(); nil != err {
		p.Log.WithError(err).Warn("unable to restore terminal")
	}

	return p.save(ctx, e.Replay())
}

func (p *Program) run(ctx context.Context, e *engine.Engine, r render.Renderer, keymap input.Keymap) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	actions := make(chan engine.Action, actionBuffer)
	snapshots := make(chan engine.Snapshot, snapshotBuffer)
	frames := make(chan engine.Snapshot, snapshotBuffer)

	var hub *spectate.Hub
	var viewers chan engine.Snapshot
	if p.Flags.Spectate != "" {
		hub = spectate.NewHub(p.Log)
		viewers = make(chan engine.Snapshot, snapshotBuffer)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: p.Flags.Spectate, Handler: mux}
		g.Go(func() error {
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("spectate server: %w", err)
		})
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			return srv.Close()
		})
		g.Go(func() error {
			return quiet(ctx, hub.Run(gctx, viewers))
		})
	}

	g.Go(func() error {
		var err error
		if p.Flags.Device != "" {
			err = input.Evdev(gctx, p.Flags.Device, keymap, actions)
		} else {
			err = input.Terminal(gctx, keymap, actions)
		}
		return quiet(ctx, err)
	})

	// Fan snapshots out so neither the renderer nor a viewer holds up play.
	g.Go(func() error {
		defer close(frames)
		if nil != viewers {
			defer close(viewers)
		}
		for s := range snapshots {
			engine.Publish(frames, s)
			if nil != viewers {
				engine.Publish(viewers, s)
			}
		}
		return nil
	})

	g.Go(func() error {
		return quiet(ctx, r.RenderLoop(gctx, p.Flags.FramePeriod, frames))
	})

	g.Go(func() error {
		defer close(snapshots)
		if d := p.Flags.Delay; d > 0 {
			select {
			case <-time.After(d):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		err := e.Run(gctx, actions, snapshots, engineTick)
		if nil == err {
			cancel()
		}
		return err
	})

	return g.Wait()
}

// quiet drops the cancellation error of a helper goroutine once the session
// itself has ended.
func quiet(ctx context.Context, err error) error {
	if nil != ctx.Err() && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Program) save(ctx context.Context, data *replay.Data) (*Outcome, error) {
	out := &Outcome{
		Chart:  p.chart,
		Replay: data,
		Result: replay.Simulate(data, p.chart, p.window),
	}

	previous, err := p.Scorer.Load(ctx, p.chart)
	if nil != err {
		p.Log.WithError(err).Warn("unable to load previous scores")
	}
	out.Previous = previous

	if data.Empty() {
		return out, nil
	}
	out.ID, err = p.Scorer.Save(ctx, p.chart, data, out.Result)
	if nil != err {
		return out, fmt.Errorf("unable to save replay: %w", err)
	}
	return out, nil
}

// Summary prints the result of a session next to the best previous one.
func (o *Outcome) Summary(w io.Writer) {
	fmt.Fprintf(w, "%v  (%v)\n\n", o.Chart.Difficulty.Name, o.Chart.Difficulty.Msd)
	for _, j := range game.Judgements {
		fmt.Fprintf(w, "%11s:  %6v\n", j.String(), o.Result.Stats.Count(j))
	}
	fmt.Fprintf(w, "\n   Accuracy:  %6.2f%%\n", o.Result.Accuracy)
	fmt.Fprintf(w, "      Score:  %6v\n", o.Result.Score)
	fmt.Fprintf(w, "  Max Combo:  %6v\n", o.Result.MaxCombo)
	if o.Replay.Practice {
		fmt.Fprintf(w, "Checkpoints:  %6v\n", len(o.Replay.Checkpoints))
	}
	if len(o.Previous) > 0 {
		best := o.Previous[0]
		fmt.Fprintf(w, "\n       Best:  %6v  %6.2f%%  %v\n", best.Score, best.Accuracy, best.PlayedAt.Format("2006-01-02"))
	}
}

var (
	_ render.Renderer = (*render.DefaultRenderer)(nil)
	_ theme.Theme     = (*theme.DefaultTheme)(nil)
	_ score.Scorer    = (*score.DefaultScorer)(nil)
)
