package game

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allWindows(t *testing.T) map[string]HitWindow {
	t.Helper()
	ws := map[string]HitWindow{"default": DefaultHitWindow()}
	for _, od := range []float64{0, 2.5, 5, 8, 10} {
		w, err := NewOsuOD(od)
		require.NoError(t, err)
		ws["od"+string(rune('0'+int(od)))] = w
	}
	for j := 1; j <= 9; j++ {
		w, err := NewEtternaJudge(j)
		require.NoError(t, err)
		ws["j"+string(rune('0'+j))] = w
	}
	return ws
}

func TestHitWindow_Nested(t *testing.T) {
	for name, w := range allWindows(t) {
		assert.NoError(t, w.Validate(), name)
	}
}

func TestHitWindow_MarvInsideRadius(t *testing.T) {
	for name, w := range allWindows(t) {
		for _, o := range []int64{0, 1, -1, w.MarvUs, -w.MarvUs, w.MarvUs / 2} {
			j, consumed := w.Judge(o)
			assert.Equal(t, Marv, j, "%s offset %d", name, o)
			assert.True(t, consumed)
		}
	}
}

func TestHitWindow_SeverityNonDecreasing(t *testing.T) {
	for name, w := range allWindows(t) {
		prev := Marv
		for o := int64(0); o <= w.MissUs+5_000; o += 250 {
			j, _ := w.Judge(o)
			assert.GreaterOrEqual(t, int(j), int(prev), "%s offset %d", name, o)
			neg, _ := w.Judge(-o)
			assert.Equal(t, j, neg, "%s must be symmetric at %d", name, o)
			prev = j
		}
	}
}

func TestHitWindow_BeyondMissIsGhostTap(t *testing.T) {
	for name, w := range allWindows(t) {
		for _, o := range []int64{w.MissUs + 1, -w.MissUs - 1, math.MaxInt64, math.MinInt64} {
			j, consumed := w.Judge(o)
			assert.Equal(t, GhostTap, j, "%s offset %d", name, o)
			assert.False(t, consumed)
		}
	}
}

func TestHitWindow_BoundaryRoundsTighter(t *testing.T) {
	w := DefaultHitWindow()
	tests := map[int64]Judgement{
		16_000:  Marv,
		16_001:  Perfect,
		50_000:  Perfect,
		65_000:  Great,
		100_000: Good,
		150_000: Bad,
		150_001: Miss,
		200_000: Miss,
	}
	for o, expected := range tests {
		j, consumed := w.Judge(o)
		assert.Equal(t, expected, j, "offset %d", o)
		assert.True(t, consumed)
	}
}

func TestHitWindow_JudgeMs(t *testing.T) {
	w := DefaultHitWindow()
	j, ok := w.JudgeMs(12.4)
	assert.Equal(t, Marv, j)
	assert.True(t, ok)

	j, ok = w.JudgeMs(math.NaN())
	assert.Equal(t, GhostTap, j)
	assert.False(t, ok)

	j, ok = w.JudgeMs(math.Inf(-1))
	assert.Equal(t, GhostTap, j)
	assert.False(t, ok)
}

func TestNewOsuOD(t *testing.T) {
	w, err := NewOsuOD(5)
	require.NoError(t, err)
	assert.Equal(t, HitWindow{16_000, 49_000, 82_000, 112_000, 136_000, 173_000}, w)

	clamped, err := NewOsuOD(14)
	require.NoError(t, err)
	ten, _ := NewOsuOD(10)
	assert.Equal(t, ten, clamped)

	low, err := NewOsuOD(-3)
	require.NoError(t, err)
	zero, _ := NewOsuOD(0)
	assert.Equal(t, zero, low)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewOsuOD(bad)
		var cerr *ConfigError
		assert.True(t, errors.As(err, &cerr))
	}
}

func TestNewEtternaJudge(t *testing.T) {
	j4, err := NewEtternaJudge(4)
	require.NoError(t, err)
	assert.Equal(t, HitWindow{22_500, 45_000, 90_000, 135_000, 180_000, 225_000}, j4)

	j9, err := NewEtternaJudge(9)
	require.NoError(t, err)
	assert.Less(t, j9.MissUs, j4.MissUs)

	for _, level := range []int{0, 10, -1} {
		_, err := NewEtternaJudge(level)
		var cerr *ConfigError
		assert.True(t, errors.As(err, &cerr), "level %d", level)
	}
}

func TestNewHitWindow(t *testing.T) {
	w, err := NewHitWindow(ModeEtternaJudge, 4.2)
	require.NoError(t, err)
	j4, _ := NewEtternaJudge(4)
	assert.Equal(t, j4, w)

	_, err = NewHitWindow(ModeEtternaJudge, math.NaN())
	assert.Error(t, err)

	_, err = NewHitWindow("quaver", 1)
	assert.Error(t, err)
}

func BenchmarkJudge(b *testing.B) {
	w := DefaultHitWindow()
	var total int
	for n := 0; n < b.N; n++ {
		j, _ := w.Judge(int64(n%400_000) - 200_000)
		total += int(j)
	}
	_ = total
}
