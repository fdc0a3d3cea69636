package score

import (
	"context"
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
)

type Scorer interface {
	Init(path string) error
	Deinit()

	// Save the replay of this performance along with its live result
	Save(ctx context.Context, chart *game.Chart, data *replay.Data, result replay.Result) (string, error)

	// Load previous performances of the chart, best first
	Load(ctx context.Context, chart *game.Chart) ([]History, error)

	// Score a stored performance under a hit window
	Score(chart *game.Chart, history *History, window game.HitWindow) replay.Result

	// Rescore every stored performance of the chart under a new hit window
	Rescore(ctx context.Context, chart *game.Chart, window game.HitWindow) ([]Rescored, error)
}

type History struct {
	ID       string
	Sum      string
	Rate     float64
	Practice bool
	Score    int
	Accuracy float64
	MaxCombo int
	PlayedAt time.Time
	Replay   *replay.Data
}

// Rescored pairs a stored performance with its result under a new window.
type Rescored struct {
	History History
	Result  replay.Result
}
