package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/tempo/internal/config"
	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/score"
	"git.lost.host/meutraa/tempo/internal/theme"
	"github.com/sirupsen/logrus"
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

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.ErrorLevel)
	}
	os.Exit(m.Run())
}

// fakeRenderer counts what it was asked to draw.
type fakeRenderer struct {
	inits, deinits int
	frames         []engine.Snapshot
}

func (r *fakeRenderer) Init() error                                           { r.inits++; return nil }
func (r *fakeRenderer) Deinit() error                                         { r.deinits++; return nil }
func (r *fakeRenderer) AddDecoration(col, row uint16, content string, n int)  {}
func (r *fakeRenderer) Render(s engine.Snapshot)                              { r.frames = append(r.frames, s) }
func (r *fakeRenderer) Fill(row, column uint16, message string)               {}
func (r *fakeRenderer) FillColor(row, column uint16, c theme.Color, m string) {}
func (r *fakeRenderer) RenderLoop(ctx context.Context, _ time.Duration, snapshots <-chan engine.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-snapshots:
			if !ok {
				return nil
			}
			r.Render(s)
		}
	}
}

func newProgram(t *testing.T) *Program {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.osu"), []byte(osuChart), 0o644))

	scorer := &score.DefaultScorer{}
	require.NoError(t, scorer.Init(filepath.Join(t.TempDir(), "scores.db")))
	t.Cleanup(scorer.Deinit)

	return &Program{
		Flags:    &config.Flags{Directory: dir, Rate: 1, Difficulty: -1},
		Settings: config.Default(),
		Scorer:   scorer,
	}
}

func TestProgram_InitWithoutAudio(t *testing.T) {
	p := newProgram(t)
	require.NoError(t, p.Init(context.Background()))
	assert.Equal(t, 1, p.ChartCount())
	assert.Empty(t, p.song.AudioFile)

	var out bytes.Buffer
	p.Charts(&out)
	assert.Contains(t, out.String(), "4K Easy")

	assert.Error(t, p.Select(1))
	require.NoError(t, chooseChart(p, -1))
	assert.NotNil(t, p.chart)

	dev, closeDevice := p.device()
	assert.Nil(t, dev)
	closeDevice()
}

func TestProgram_InitErrors(t *testing.T) {
	p := newProgram(t)
	p.Flags.Directory = t.TempDir()
	assert.Error(t, p.Init(context.Background()))

	p = newProgram(t)
	p.Settings.HitWindowValue = 0
	p.Settings.HitWindowMode = "etterna_judge"
	assert.Error(t, p.Init(context.Background()))
}

func TestProgram_Options(t *testing.T) {
	p := newProgram(t)
	require.NoError(t, p.Init(context.Background()))
	require.NoError(t, p.Select(0))

	opts := p.options(nil)
	assert.Equal(t, p.Settings.ScrollSpeedMs, opts.ScrollSpeedMs)
	assert.Equal(t, 4, opts.Columns)
	assert.Equal(t, p.Settings.CheckpointCooldown, opts.Cooldown)

	p.Flags.ScrollSpeed = 800 * time.Millisecond
	assert.Equal(t, 800.0, p.options(nil).ScrollSpeedMs)
}

func TestProgram_PlayWithoutChart(t *testing.T) {
	p := newProgram(t)
	_, err := p.Play(context.Background(), &fakeRenderer{})
	assert.ErrorIs(t, err, engine.ErrNoChart)
}
