package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"git.lost.host/meutraa/tempo/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smChart = `#TITLE:Test;
#MUSIC:song.ogg;
#OFFSET:0.000;
#BPMS:0.000=120.000;
#NOTES:
     dance-single:
     :
     Beginner:
     1:
     0,0,0,0,0:
1000
0100
0010
0001
,
2000
0000
3000
M000
;
#NOTES:
     pump-single:
     :
     Hard:
     9:
     0,0,0,0,0:
10000
;
`

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

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultParser_Parse(t *testing.T) {
	file := write(t, "test.sm", smChart)
	charts, err := (&DefaultParser{}).Parse(file)
	require.NoError(t, err)
	require.Len(t, charts, 1, "unknown chart types are skipped")

	c := charts[0]
	assert.Equal(t, "Beginner", c.Difficulty.Name)
	assert.Equal(t, "1", c.Difficulty.Msd)
	assert.Equal(t, uint8(4), c.Difficulty.NKeys)
	assert.Equal(t, filepath.Join(filepath.Dir(file), "song.ogg"), c.AudioFile)

	require.Len(t, c.Notes, 6)
	times := []int64{0, 500_000, 1_000_000, 1_500_000, 2_000_000, 3_500_000}
	for i, n := range c.Notes {
		assert.Equal(t, times[i], n.TimeUs, "note %d", i)
	}
	assert.Equal(t, []uint8{0, 1, 2, 3, 0, 0}, []uint8{
		c.Notes[0].Column, c.Notes[1].Column, c.Notes[2].Column,
		c.Notes[3].Column, c.Notes[4].Column, c.Notes[5].Column,
	})
	assert.Equal(t, game.KindHold, c.Notes[4].Kind)
	assert.Equal(t, int64(1_000_000), c.Notes[4].DurationUs)
	assert.Equal(t, game.KindMine, c.Notes[5].Kind)
	assert.Equal(t, int64(5), c.NoteCount)
	assert.Equal(t, int64(1), c.HoldCount)
	assert.Equal(t, int64(1), c.MineCount)
	assert.NotEmpty(t, c.Measures)
}

func TestDefaultParser_NoPlayableCharts(t *testing.T) {
	file := write(t, "empty.sm", "#OFFSET:0;\n#BPMS:0=120;\n")
	_, err := (&DefaultParser{}).Parse(file)
	assert.True(t, errors.Is(err, ErrNoNotes))

	file = write(t, "nobpm.sm", "#OFFSET:0;\n")
	_, err = (&DefaultParser{}).Parse(file)
	assert.Error(t, err)
}

func TestOsuParser_Parse(t *testing.T) {
	file := write(t, "test.osu", osuChart)
	charts, err := (&OsuParser{}).Parse(file)
	require.NoError(t, err)
	require.Len(t, charts, 1)

	c := charts[0]
	assert.Equal(t, "4K Easy", c.Difficulty.Name)
	assert.Equal(t, uint8(4), c.Difficulty.NKeys)
	assert.Equal(t, filepath.Join(filepath.Dir(file), "audio.mp3"), c.AudioFile)
	require.Len(t, c.Notes, 4)
	for i, n := range c.Notes {
		assert.Equal(t, uint8(i), n.Column)
	}
	assert.Equal(t, int64(1_250_000), c.Notes[1].TimeUs)
	assert.Equal(t, game.KindHold, c.Notes[2].Kind)
	assert.Equal(t, int64(500_000), c.Notes[2].DurationUs)
}

func TestOsuParser_RejectsOtherModes(t *testing.T) {
	file := write(t, "std.osu", "[General]\nMode: 0\n[Difficulty]\nCircleSize:4\n[HitObjects]\n64,192,1000,1,0\n")
	_, err := (&OsuParser{}).Parse(file)
	assert.True(t, errors.Is(err, errNotMania))
}

func TestForFile(t *testing.T) {
	p, err := ForFile("a/b/chart.SM")
	require.NoError(t, err)
	assert.IsType(t, &DefaultParser{}, p)

	p, err = ForFile("x.osu")
	require.NoError(t, err)
	assert.IsType(t, &OsuParser{}, p)

	_, err = ForFile("x.bms")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"song.mp3", "song.ogg", "chart.sm", "cover.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	song, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart.sm"), song.ChartFile)
	assert.Equal(t, filepath.Join(dir, "song.ogg"), song.AudioFile)

	_, err = Locate(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoChartInSong))
}
