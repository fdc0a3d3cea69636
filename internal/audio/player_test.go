package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silence is a seekable stream of zero samples.
type silence struct {
	pos, len int
	closed   bool
}

func (s *silence) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.len {
		return 0, false
	}
	n := len(samples)
	if s.len-s.pos < n {
		n = s.len - s.pos
	}
	for i := 0; i < n; i++ {
		samples[i] = [2]float64{}
	}
	s.pos += n
	return n, true
}

func (s *silence) Err() error    { return nil }
func (s *silence) Len() int      { return s.len }
func (s *silence) Position() int { return s.pos }
func (s *silence) Close() error  { s.closed = true; return nil }
func (s *silence) Seek(p int) error {
	if p < 0 || p > s.len {
		return errors.New("out of range")
	}
	s.pos = p
	return nil
}

func testPlayer(t *testing.T) (*Player, *silence, *int) {
	t.Helper()
	s := &silence{len: 44100 * 10}
	p := newPlayer(s, beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}, logrus.StandardLogger())
	plays := 0
	p.play = func(beep.Streamer) { plays++ }
	return p, s, &plays
}

func TestPlayer_CountsPulledSamples(t *testing.T) {
	p, _, plays := testPlayer(t)
	p.Play()
	p.Play()
	assert.Equal(t, 1, *plays)

	buf := make([][2]float64, 4410)
	for i := 0; i < 10; i++ {
		n, ok := p.ctrl.Stream(buf)
		require.True(t, ok)
		require.Equal(t, 4410, n)
	}
	assert.InDelta(t, 1.0, p.PositionSeconds(), 1e-9)
	assert.InDelta(t, 10.0, p.Length(), 1e-9)
}

func TestPlayer_Seek(t *testing.T) {
	p, s, _ := testPlayer(t)
	require.NoError(t, p.Seek(2.5))
	assert.Eventually(t, func() bool { return !p.Seeking() }, time.Second, time.Millisecond)
	assert.Equal(t, 110250, s.pos)
	assert.InDelta(t, 2.5, p.PositionSeconds(), 1e-9)

	require.NoError(t, p.Seek(99))
	assert.Eventually(t, func() bool { return !p.Seeking() }, time.Second, time.Millisecond)
	assert.Equal(t, s.len, s.pos, "seeks past the end stop at the end")
}

func TestPlayer_SeekTwiceKeepsSeekingUntilLatest(t *testing.T) {
	p, s, _ := testPlayer(t)
	var speaker sync.Mutex
	p.lock, p.unlock = speaker.Lock, speaker.Unlock

	speaker.Lock()
	require.NoError(t, p.Seek(1))
	require.NoError(t, p.Seek(3))
	assert.True(t, p.Seeking())
	speaker.Unlock()

	assert.Eventually(t, func() bool { return !p.Seeking() }, time.Second, time.Millisecond)
	speaker.Lock()
	defer speaker.Unlock()
	assert.Equal(t, 3*44100, s.pos)
	assert.InDelta(t, 3.0, p.PositionSeconds(), 1e-9)
}

func TestPlayer_Close(t *testing.T) {
	p, s, _ := testPlayer(t)
	require.NoError(t, p.Close())
	assert.True(t, s.closed)
	assert.True(t, p.ctrl.Paused)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("does-not-exist.ogg", 1, nil)
	assert.Error(t, err)
	_, err = Open("cover.png", 1, nil)
	assert.Error(t, err)
}

func TestPlayer_SetVolume(t *testing.T) {
	p, _, _ := testPlayer(t)
	var played beep.Streamer
	p.play = func(s beep.Streamer) { played = s }
	p.Play()
	assert.Same(t, p.volume, played)

	p.SetVolume(0)
	assert.True(t, p.volume.Silent)

	p.SetVolume(0.5)
	assert.False(t, p.volume.Silent)
	assert.InDelta(t, -1.0, p.volume.Volume, 1e-9)

	p.SetVolume(3)
	assert.InDelta(t, 0.0, p.volume.Volume, 1e-9)
}
