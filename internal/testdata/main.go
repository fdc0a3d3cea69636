// Package testdata generates charts and replays for tests and benchmarks.
package testdata

import (
	"cmp"
	"math/rand"
	"slices"
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
)

// Chart lays out n notes over four columns, one second in and up to 200ms
// apart. About one note in twenty is a mine.
func Chart(seed int64, n int) *game.Chart {
	rng := rand.New(rand.NewSource(seed))
	notes := make([]game.Note, n)
	t := int64(1_000_000)
	for i := range notes {
		t += 1 + rng.Int63n(200_000)
		kind := game.KindTap
		if rng.Intn(20) == 0 {
			kind = game.KindMine
		}
		notes[i] = game.Note{TimeUs: t, Column: uint8(rng.Intn(4)), Kind: kind, Denom: 1}
	}
	c, err := game.NewChart(notes, game.Difficulty{Name: "generated", NKeys: 4})
	if nil != err {
		panic(err)
	}
	return c
}

// Play presses about nine in ten notes of the chart in the right column,
// off by up to spread either way, and releases 30ms later.
func Play(c *game.Chart, seed int64, spread time.Duration) *replay.Data {
	rng := rand.New(rand.NewSource(seed))
	d := replay.New(1)
	s := spread.Microseconds()
	for _, n := range c.Notes {
		if !n.Judgeable() || rng.Intn(10) == 0 {
			continue
		}
		at := n.TimeUs
		if s > 0 {
			at += rng.Int63n(2*s+1) - s
		}
		d.AddPress(at, n.Column)
		d.AddRelease(at+30_000, n.Column)
	}
	slices.SortStableFunc(d.Inputs, func(a, b replay.Input) int {
		return cmp.Compare(a.TimeUs, b.TimeUs)
	})
	return d
}
