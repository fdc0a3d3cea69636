// Package difficulty rates charts. Calculators are constructed by the caller
// and passed to whatever needs them; there is no package level instance.
package difficulty

import (
	"context"
	"errors"
	"runtime"

	"git.lost.host/meutraa/tempo/internal/game"
	"golang.org/x/sync/errgroup"
)

var ErrNoNotes = errors.New("chart has no notes to rate")

// Rating is one calculator's breakdown at a playback rate.
type Rating struct {
	Name    string  `json:"name"`
	Overall float64 `json:"overall"`
	Stream  float64 `json:"stream"`
	Jack    float64 `json:"jack"`
	Stamina float64 `json:"stamina"`
}

type Info struct {
	DurationMs float64  `json:"duration_ms"`
	NPS        float64  `json:"nps"`
	Ratings    []Rating `json:"ratings"`
}

// Overall returns the named rating's overall value.
func (i Info) Overall(name string) (float64, bool) {
	for _, r := range i.Ratings {
		if r.Name == name {
			return r.Overall, true
		}
	}
	return 0, false
}

type Calculator interface {
	Analyze(chart *game.Chart, rate float64) (Info, error)
}

// AnalyzeAll rates every chart in parallel. Results are in chart order.
func AnalyzeAll(ctx context.Context, calc Calculator, charts []*game.Chart, rate float64) ([]Info, error) {
	infos := make([]Info, len(charts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range charts {
		g.Go(func() error {
			if err := ctx.Err(); nil != err {
				return err
			}
			info, err := calc.Analyze(c, rate)
			if errors.Is(err, ErrNoNotes) {
				return nil
			}
			infos[i] = info
			return err
		})
	}
	if err := g.Wait(); nil != err {
		return nil, err
	}
	return infos, nil
}
