package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	dir := t.TempDir()
	f, err := Parse([]string{dir, "-r", "1.5", "--practice", "--offset=-20ms", "-D", "2", "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, dir, f.Directory)
	assert.Equal(t, 1.5, f.Rate)
	assert.True(t, f.Practice)
	assert.Equal(t, -20*time.Millisecond, f.Offset)
	assert.Equal(t, 2, f.Difficulty)
	assert.Equal(t, "debug", f.LogLevel)
	assert.Equal(t, 4*time.Millisecond, f.FramePeriod)
	assert.Equal(t, time.Duration(0), f.ScrollSpeed)
	assert.Equal(t, uint(6), f.Spacing)
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.Rate)
	assert.Equal(t, -1, f.Difficulty)
	assert.False(t, f.Practice)
	assert.Equal(t, "warning", f.LogLevel)
	assert.Equal(t, DefaultSettingsPath(), f.Settings)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err, "directory is required")

	_, err = Parse([]string{"/does/not/exist"})
	assert.Error(t, err)

	_, err = Parse([]string{t.TempDir(), "--log-level", "loud"})
	assert.Error(t, err)
}
