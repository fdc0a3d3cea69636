package main

import (
	"fmt"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
	"github.com/spf13/cobra"
)

func newRejudgeCmd() *cobra.Command {
	var (
		chart      chartFlags
		hw         windowFlags
		from       windowFlags
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rejudge <replay>",
		Short: "Judge a replay again under another hit window",
		Long: `Simulates the replay from its raw input under --mode/--value. The quick
estimate regrades the offsets recorded under --from-mode/--from-value
without simulating; it can differ when a tighter window changes which
note a press lands on.`,
		Example: `  replaytool rejudge run.rpl --chart song.osu --mode etterna_judge --value 4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := replay.ReadFile(args[0])
			if nil != err {
				return err
			}
			c, err := chart.load()
			if nil != err {
				return err
			}
			target, err := hw.window()
			if nil != err {
				return err
			}
			source, err := from.window()
			if nil != err {
				return err
			}

			original := replay.Simulate(d, c, source)
			rejudged := replay.Rejudge(d, c, target)
			estStats, estAcc := replay.RejudgeTimings(original.HitTimings, target)

			w := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(w, struct {
					Original         replay.Result `json:"original"`
					Rejudged         replay.Result `json:"rejudged"`
					EstimateStats    game.HitStats `json:"estimate_hit_stats"`
					EstimateAccuracy float64       `json:"estimate_accuracy"`
				}{original, rejudged, estStats, estAcc})
			}

			fmt.Fprintf(w, "Under %s %v:\n", game.HitWindowMode(from.mode), from.value)
			printResult(w, original)
			fmt.Fprintf(w, "\nUnder %s %v:\n", game.HitWindowMode(hw.mode), hw.value)
			printResult(w, rejudged)
			fmt.Fprintf(w, "\nEstimate from offsets: %.2f%%\n", estAcc)
			return nil
		},
	}
	chart.register(cmd, true)
	hw.register(cmd)
	cmd.Flags().StringVar(&from.mode, "from-mode", string(game.ModeOsuOD), "hit window mode the replay was played under")
	cmd.Flags().Float64Var(&from.value, "from-value", 8, "hit window value the replay was played under")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
