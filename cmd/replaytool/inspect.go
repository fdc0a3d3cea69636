package main

import (
	"fmt"

	"git.lost.host/meutraa/tempo/internal/difficulty"
	"git.lost.host/meutraa/tempo/internal/replay"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var (
		chart      chartFlags
		hw         windowFlags
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <replay>",
		Short: "Show what a replay file contains",
		Long: `Prints the replay header, input counts and checkpoints. Given a chart the
replay is also judged against it and the chart is rated.`,
		Example: `  replaytool inspect run.rpl
  replaytool inspect run.rpl --chart song.sm --difficulty 2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := replay.ReadFile(args[0])
			if nil != err {
				return err
			}

			presses := 0
			for _, in := range d.Inputs {
				if in.IsPress() {
					presses++
				}
			}
			out := struct {
				Version     uint8            `json:"version"`
				Rate        float64          `json:"rate"`
				Practice    bool             `json:"practice"`
				Inputs      int              `json:"inputs"`
				Presses     int              `json:"presses"`
				Checkpoints []int64          `json:"checkpoints_us"`
				Result      *replay.Result   `json:"result,omitempty"`
				Difficulty  *difficulty.Info `json:"difficulty,omitempty"`
			}{
				Version:     d.Version,
				Rate:        d.Rate,
				Practice:    d.Practice,
				Inputs:      d.InputCount(),
				Presses:     presses,
				Checkpoints: d.Checkpoints,
			}

			if chart.file != "" {
				c, err := chart.load()
				if nil != err {
					return err
				}
				w, err := hw.window()
				if nil != err {
					return err
				}
				res := replay.Simulate(d, c, w)
				out.Result = &res
				if info, err := (difficulty.DensityCalculator{}).Analyze(c, d.Rate); nil == err {
					out.Difficulty = &info
				}
			}

			w := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(w, out)
			}
			fmt.Fprintf(w, "Replay v%d at %.2fx\n", out.Version, out.Rate)
			fmt.Fprintf(w, "  Inputs:      %d (%d presses)\n", out.Inputs, out.Presses)
			if len(d.Inputs) > 0 {
				fmt.Fprintf(w, "  Span:        %s to %s\n",
					usToDuration(d.Inputs[0].TimeUs), usToDuration(d.Inputs[len(d.Inputs)-1].TimeUs))
			}
			if out.Practice {
				fmt.Fprintf(w, "  Practice:    %d checkpoints\n", len(out.Checkpoints))
				for _, cp := range out.Checkpoints {
					fmt.Fprintf(w, "    %s\n", usToDuration(cp))
				}
			}
			if nil != out.Difficulty {
				for _, r := range out.Difficulty.Ratings {
					fmt.Fprintf(w, "  Rating:      %.2f %s (%.1f nps)\n", r.Overall, r.Name, out.Difficulty.NPS)
				}
			}
			if nil != out.Result {
				fmt.Fprintln(w)
				printResult(w, *out.Result)
			}
			return nil
		},
	}
	chart.register(cmd, false)
	hw.register(cmd)
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
