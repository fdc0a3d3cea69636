// Package engine runs live play: it advances the song clock, sweeps missed
// notes, judges presses and records raw input for replays.
package engine

import (
	"errors"
	"fmt"
	"time"

	"git.lost.host/meutraa/tempo/internal/clock"
	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
	"github.com/sirupsen/logrus"
)

const (
	// FinishGraceMs is how long play continues past the last note.
	FinishGraceMs = 2000
	// DefaultScrollSpeedMs is the time a note is visible before it is due.
	DefaultScrollSpeedMs = 500
	visibleLeadMs        = 2000
)

// Phase is derived from the clock alone.
type Phase uint8

const (
	Pretiming Phase = iota
	Active
	Finished
)

func (p Phase) String() string {
	switch p {
	case Pretiming:
		return "pretiming"
	case Active:
		return "active"
	case Finished:
		return "finished"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type Options struct {
	Rate   float64
	Device clock.Device // nil plays against a free running clock
	Window game.HitWindow
	// Practice enables checkpoints and retries.
	Practice      bool
	ScrollSpeedMs float64
	// Columns sizes the held key vector; the chart decides when zero.
	Columns     int
	Cooldown    time.Duration
	RetryOffset time.Duration
	Logger      logrus.FieldLogger
}

// Engine is owned by a single goroutine. Nothing on it is safe for
// concurrent use; other goroutines see it only through Snapshots.
type Engine struct {
	chart       *game.Chart
	clock       *clock.AudioClock
	window      game.HitWindow
	head        int
	tally       game.Tally
	keysHeld    []bool
	last        game.Judgement
	hasLast     bool
	lastTiming  int64
	hasTiming   bool
	recorder    *replay.Recorder
	nps         npsWindow
	checkpoints *CheckpointManager
	practice    bool
	scrollSpeed float64
	log         logrus.FieldLogger
}

var ErrNoChart = errors.New("no chart loaded")

// New creates a session for chart. The chart's hit flags are reset and then
// owned by the engine until the session ends.
func New(chart *game.Chart, opts Options) (*Engine, error) {
	if chart == nil {
		return nil, ErrNoChart
	}
	if opts.Window == (game.HitWindow{}) {
		opts.Window = game.DefaultHitWindow()
	}
	if err := opts.Window.Validate(); nil != err {
		return nil, fmt.Errorf("unable to start session: %w", err)
	}
	if opts.ScrollSpeedMs <= 0 {
		opts.ScrollSpeedMs = DefaultScrollSpeedMs
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	columns := opts.Columns
	if int(chart.Difficulty.NKeys) > columns {
		columns = int(chart.Difficulty.NKeys)
	}
	for i := range chart.Notes {
		if c := int(chart.Notes[i].Column) + 1; c > columns {
			columns = c
		}
	}

	chart.ResetHits()
	c := clock.New(opts.Rate, opts.Device)
	e := &Engine{
		chart:       chart,
		clock:       c,
		window:      opts.Window,
		keysHeld:    make([]bool, columns),
		recorder:    replay.NewRecorder(c.Rate(), opts.Practice),
		checkpoints: NewCheckpointManager(opts.Cooldown, opts.RetryOffset),
		practice:    opts.Practice,
		scrollSpeed: opts.ScrollSpeedMs,
		log:         opts.Logger,
	}
	if e.practice {
		e.log.Info("practice mode enabled")
	}
	return e, nil
}

func (e *Engine) matcher() game.Matcher {
	return game.Matcher{Notes: e.chart.Notes, State: e.chart, Window: e.window}
}

func (e *Engine) miss(int) {
	e.tally.Apply(game.Miss)
}

func (e *Engine) sweep(nowUs int64) {
	e.head = e.matcher().Sweep(e.head, nowUs, e.miss)
}

// Update advances the session by dt seconds of wall time.
func (e *Engine) Update(dt float64) {
	e.clock.Advance(dt)
	if !e.clock.Started() {
		if !e.clock.Start() {
			return
		}
		e.log.Debugf("playback started at %.1fms", e.clock.Now())
	}

	if drift, corr := e.clock.Sync(); corr == clock.Snapped {
		e.log.Debugf("clock snapped to device, drift %.1fms", drift)
	}

	now := e.clock.NowUs()
	e.sweep(now)
	e.nps.prune(now)
}

// HandleInput applies one action. Checkpoint and Retry are ignored outside
// practice mode.
func (e *Engine) HandleInput(a Action) {
	switch a.Kind {
	case Press:
		e.Press(a.Column)
	case Release:
		e.Release(a.Column)
	case Checkpoint:
		if e.practice {
			e.SetCheckpoint()
		}
	case Retry:
		if e.practice {
			e.GotoCheckpoint()
		}
	}
}

// Press records and judges a press at the current song time. Columns a
// replay cannot encode are dropped and reported as not handled.
func (e *Engine) Press(column uint8) (game.Judgement, bool) {
	if int(column) >= game.MaxColumns {
		e.log.Debugf("dropping press on column %d", column)
		return game.GhostTap, false
	}
	now := e.clock.NowUs()
	if int(column) < len(e.keysHeld) {
		e.keysHeld[column] = true
	}
	e.recorder.Press(now, column)
	e.nps.add(now)

	head, j, idx, offset := e.matcher().Press(e.head, column, now, e.miss)
	e.head = head
	e.tally.Apply(j)
	e.last, e.hasLast = j, true
	e.lastTiming, e.hasTiming = offset, idx >= 0
	return j, true
}

// Release records a release. It never scores.
func (e *Engine) Release(column uint8) {
	if int(column) >= game.MaxColumns {
		return
	}
	now := e.clock.NowUs()
	if int(column) < len(e.keysHeld) {
		e.keysHeld[column] = false
	}
	e.recorder.Release(now, column)
	e.sweep(now)
}

// SetCheckpoint captures the session state at the current song time. It
// returns false while the cooldown since the previous checkpoint runs.
func (e *Engine) SetCheckpoint() bool {
	now := e.clock.NowUs()
	if left := e.checkpoints.Remaining(now); left > 0 {
		e.log.Debugf("checkpoint cooldown, %.1fs remaining", left.Seconds())
		return false
	}
	e.sweep(now)
	e.checkpoints.store(CheckpointState{
		TimestampUs: now,
		Head:        e.head,
		Tally:       e.tally,
		Hits:        e.chart.HitBitmap(),
		Inputs:      e.recorder.Len(),
	})
	e.recorder.Checkpoint(now)
	e.log.Infof("checkpoint set at %.1fs", float64(now)/1e6)
	return true
}

// GotoCheckpoint restores the latest checkpoint and rewinds play to a short
// lead in before it. Input recorded after the checkpoint was set is
// discarded, and every key is released at the checkpoint time. It returns
// false when there is no checkpoint.
func (e *Engine) GotoCheckpoint() bool {
	cp, ok := e.checkpoints.Latest()
	if !ok {
		e.log.Debug("no checkpoint to return to")
		return false
	}
	retry := e.checkpoints.RetryTimeUs(cp)

	e.tally = cp.Tally
	e.chart.RestoreHits(cp.Hits)
	e.head = cp.Head
	for i := range e.chart.Notes {
		if !e.chart.Notes[i].Hit && e.chart.Notes[i].TimeUs >= retry-e.window.MissUs {
			e.head = i
			break
		}
	}
	e.recorder.Rewind(cp.Inputs, cp.TimestampUs, len(e.keysHeld))

	if err := e.clock.Seek(float64(retry) / 1000); nil != err {
		e.log.WithError(err).Warn("unable to seek audio")
	}
	for i := range e.keysHeld {
		e.keysHeld[i] = false
	}
	e.nps.reset()
	e.hasLast, e.hasTiming = false, false

	e.log.Infof("returned to checkpoint at %.1fs, retrying from %.1fs", float64(cp.TimestampUs)/1e6, float64(retry)/1e6)
	return true
}

// UpdateHitWindow changes the window used for judging from now on.
func (e *Engine) UpdateHitWindow(w game.HitWindow) error {
	if err := w.Validate(); nil != err {
		return err
	}
	e.window = w
	return nil
}

// Finished reports whether the clock is past the last note plus the grace
// period. An empty chart is finished immediately.
func (e *Engine) Finished() bool {
	if len(e.chart.Notes) == 0 {
		return true
	}
	return e.clock.Now() > float64(e.chart.DurationUs())/1000+FinishGraceMs
}

func (e *Engine) Phase() Phase {
	switch {
	case e.Finished():
		return Finished
	case !e.clock.Started():
		return Pretiming
	}
	return Active
}

// Replay returns a copy of the input recorded so far.
func (e *Engine) Replay() *replay.Data {
	return e.recorder.Data()
}

func (e *Engine) Rate() float64 {
	return e.clock.Rate()
}

func (e *Engine) Tally() game.Tally {
	return e.tally
}

func (e *Engine) Head() int {
	return e.head
}

func (e *Engine) NowMs() float64 {
	return e.clock.Now()
}

func (e *Engine) NowUs() int64 {
	return e.clock.NowUs()
}

func (e *Engine) Chart() *game.Chart {
	return e.chart
}

func (e *Engine) HitWindow() game.HitWindow {
	return e.window
}

func (e *Engine) Practice() bool {
	return e.practice
}

// LastJudgement is the judgement of the latest press, if any since the start
// or the last retry.
func (e *Engine) LastJudgement() (game.Judgement, bool) {
	return e.last, e.hasLast
}

func (e *Engine) NPS() float64 {
	return e.nps.rate()
}

func (e *Engine) KeysHeld() []bool {
	return append([]bool{}, e.keysHeld...)
}
