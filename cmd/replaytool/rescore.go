package main

import (
	"fmt"

	"git.lost.host/meutraa/tempo/internal/score"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRescoreCmd() *cobra.Command {
	var (
		chart      chartFlags
		hw         windowFlags
		db         string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Rescore every stored replay of a chart",
		Long: `Judges every replay of the chart in the score database again under the
given hit window and stores the new scores.`,
		Example: `  replaytool rescore --db scores.db --chart song.sm --mode osu_od --value 9`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := chart.load()
			if nil != err {
				return err
			}
			w, err := hw.window()
			if nil != err {
				return err
			}

			s := &score.DefaultScorer{Log: logrus.StandardLogger()}
			if err := s.Init(db); nil != err {
				return err
			}
			defer s.Deinit()

			out, err := s.Rescore(cmd.Context(), c, w)
			if nil != err {
				return err
			}

			stdout := cmd.OutOrStdout()
			if outputJSON {
				rows := make([]map[string]any, 0, len(out))
				for _, r := range out {
					rows = append(rows, map[string]any{
						"id":             r.History.ID,
						"played_at":      r.History.PlayedAt,
						"previous_score": r.History.Score,
						"score":          r.Result.Score,
						"accuracy":       r.Result.Accuracy,
						"max_combo":      r.Result.MaxCombo,
					})
				}
				return writeJSON(stdout, rows)
			}

			fmt.Fprintf(stdout, "Rescored %d replays of %s\n", len(out), c.Difficulty.Name)
			for _, r := range out {
				fmt.Fprintf(stdout, "  %s  %s  %8d -> %8d  %6.2f%%\n",
					r.History.ID[:8], r.History.PlayedAt.Format("2006-01-02 15:04"),
					r.History.Score, r.Result.Score, r.Result.Accuracy)
			}
			return nil
		},
	}
	chart.register(cmd, true)
	hw.register(cmd)
	cmd.Flags().StringVar(&db, "db", score.DefaultPath, "score database")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
