package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/parser"
	"git.lost.host/meutraa/tempo/internal/replay"
	"git.lost.host/meutraa/tempo/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const osuChart = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 3

[Metadata]
Title:Test
Version:4K Easy

[Difficulty]
CircleSize:4
OverallDifficulty:8

[HitObjects]
64,192,1000,1,0,0:0:0:0:
192,192,1250,5,0,0:0:0:0:
320,192,1500,128,0,2000:0:0:0:0:
448,192,2500,1,0,0:0:0:0:
`

// fixture writes the chart and a replay pressing every note lateUs late.
func fixture(t *testing.T, lateUs int64) (chartPath, replayPath string) {
	t.Helper()
	dir := t.TempDir()
	chartPath = filepath.Join(dir, "test.osu")
	require.NoError(t, os.WriteFile(chartPath, []byte(osuChart), 0o644))

	charts, err := parser.Load(chartPath)
	require.NoError(t, err)
	d := replay.New(1)
	for _, n := range charts[0].Notes {
		d.AddPress(n.TimeUs+lateUs, n.Column)
		d.AddRelease(n.TimeUs+lateUs+50_000, n.Column)
	}
	replayPath = filepath.Join(dir, "run.rpl")
	require.NoError(t, replay.WriteFile(replayPath, d))
	return chartPath, replayPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	_, rpl := fixture(t, 0)
	out, err := run(t, "inspect", rpl)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay v5 at 1.00x")
	assert.Contains(t, out, "8 (4 presses)")
	assert.NotContains(t, out, "Accuracy")
}

func TestInspect_WithChartJSON(t *testing.T) {
	chart, rpl := fixture(t, 0)
	out, err := run(t, "inspect", rpl, "--chart", chart, "--json")
	require.NoError(t, err)

	var got struct {
		Presses    int
		Result     replay.Result
		Difficulty map[string]any
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Presses)
	assert.Equal(t, 4, got.Result.Stats.Marv)
	assert.Equal(t, 100.0, got.Result.Accuracy)
	assert.Equal(t, 1200, got.Result.Score)
	assert.NotEmpty(t, got.Difficulty["ratings"])
}

func TestRejudge(t *testing.T) {
	chart, rpl := fixture(t, 20_000)
	out, err := run(t, "rejudge", rpl, "--chart", chart, "--mode", "etterna_judge", "--value", "9", "--json")
	require.NoError(t, err)

	var got struct {
		Original      replay.Result `json:"original"`
		Rejudged      replay.Result `json:"rejudged"`
		EstimateStats game.HitStats `json:"estimate_hit_stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Original.Stats.Perfect)
	assert.Equal(t, 4, got.Rejudged.Stats.Good)
	assert.Equal(t, got.Rejudged.Stats, got.EstimateStats)

	out, err = run(t, "rejudge", rpl, "--chart", chart)
	require.NoError(t, err)
	assert.Contains(t, out, "Estimate from offsets")
	assert.Contains(t, out, "Mean:")
}

func TestRejudge_Errors(t *testing.T) {
	chart, rpl := fixture(t, 0)

	_, err := run(t, "rejudge", rpl)
	assert.Error(t, err, "chart is required")

	_, err = run(t, "rejudge", rpl, "--chart", chart, "--mode", "stepmania")
	assert.Error(t, err)

	_, err = run(t, "rejudge", rpl, "--chart", chart, "--difficulty", "3")
	assert.Error(t, err)

	_, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing.rpl"))
	assert.Error(t, err)
}

func TestRescore(t *testing.T) {
	chart, rpl := fixture(t, 20_000)
	db := filepath.Join(t.TempDir(), "scores.db")

	charts, err := parser.Load(chart)
	require.NoError(t, err)
	d, err := replay.ReadFile(rpl)
	require.NoError(t, err)

	s := &score.DefaultScorer{}
	require.NoError(t, s.Init(db))
	res := replay.Simulate(d, charts[0], game.DefaultHitWindow())
	_, err = s.Save(context.Background(), charts[0], d, res)
	require.NoError(t, err)
	s.Deinit()

	out, err := run(t, "rescore", "--db", db, "--chart", chart, "--mode", "etterna_judge", "--value", "9", "--json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, float64(res.Score), rows[0]["previous_score"])
	assert.Equal(t, float64(4*game.Good.Score()), rows[0]["score"])
}

func TestOffsetStats(t *testing.T) {
	_, _, ok := offsetStats([]replay.HitTiming{{OffsetUs: 1000, Judgement: game.Marv}})
	assert.False(t, ok)

	mean, stdev, ok := offsetStats([]replay.HitTiming{
		{OffsetUs: 10_000, Judgement: game.Perfect},
		{OffsetUs: -10_000, Judgement: game.Perfect},
		{OffsetUs: 180_000, Judgement: game.Miss},
	})
	require.True(t, ok)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 14.142, stdev, 1e-3)
}
