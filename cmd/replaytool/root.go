package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/parser"
	"git.lost.host/meutraa/tempo/internal/replay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root replaytool command.
func NewRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:   "replaytool",
		Short: "Inspect and rejudge tempo replays",
		Long: `replaytool reads recorded replays and judges them again, either one file
at a time or every stored replay of a chart in the score database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if nil != err {
				return err
			}
			logrus.SetLevel(lvl)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "warning", "log level")

	root.AddCommand(
		newInspectCmd(),
		newRejudgeCmd(),
		newRescoreCmd(),
	)
	return root
}

// windowFlags selects a hit window the way the settings file does.
type windowFlags struct {
	mode  string
	value float64
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.mode, "mode", string(game.ModeOsuOD), "hit window mode, osu_od or etterna_judge")
	cmd.Flags().Float64Var(&w.value, "value", 8, "overall difficulty or judge level")
}

func (w *windowFlags) window() (game.HitWindow, error) {
	return game.NewHitWindow(game.HitWindowMode(w.mode), w.value)
}

// chartFlags picks one chart out of a chart file.
type chartFlags struct {
	file  string
	index int
}

func (c *chartFlags) register(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVarP(&c.file, "chart", "c", "", "chart file (.sm or .osu)")
	cmd.Flags().IntVarP(&c.index, "difficulty", "d", 0, "chart index within the file")
	if required {
		cmd.MarkFlagRequired("chart")
	}
}

func (c *chartFlags) load() (*game.Chart, error) {
	charts, err := parser.Load(c.file)
	if nil != err {
		return nil, err
	}
	if c.index < 0 || c.index >= len(charts) {
		return nil, fmt.Errorf("difficulty %d out of range, %s has %d charts", c.index, c.file, len(charts))
	}
	return charts[c.index], nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, res replay.Result) {
	for _, j := range game.Judgements {
		fmt.Fprintf(w, "  %-10s %6d\n", j.String()+":", res.Stats.Count(j))
	}
	fmt.Fprintf(w, "  Accuracy:  %6.2f%%\n", res.Accuracy)
	fmt.Fprintf(w, "  Score:     %6d\n", res.Score)
	fmt.Fprintf(w, "  Max combo: %6d\n", res.MaxCombo)

	if mean, stdev, ok := offsetStats(res.HitTimings); ok {
		fmt.Fprintf(w, "  Mean:      %6.2fms\n", mean)
		fmt.Fprintf(w, "  Stdev:     %6.2fms\n", stdev)
	}
}

// offsetStats is the mean and sample deviation of the hit offsets, misses
// excluded.
func offsetStats(timings []replay.HitTiming) (float64, float64, bool) {
	sum, n := 0.0, 0
	for _, h := range timings {
		if h.Judgement.IsHit() {
			sum += h.OffsetMs()
			n++
		}
	}
	if n < 2 {
		return 0, 0, false
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, h := range timings {
		if h.Judgement.IsHit() {
			d := h.OffsetMs() - mean
			ss += d * d
		}
	}
	return mean, math.Sqrt(ss / float64(n-1)), true
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
