// Package audio plays the song and reports how much of it has been played.
package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"git.lost.host/meutraa/tempo/internal/clock"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"
)

// Player is a clock.Device backed by the beep speaker. The speaker runs at
// the song sample rate scaled by the playback rate, so positions are in song
// seconds whatever the rate.
type Player struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	counter  *clock.SampleCounter
	seekGen  atomic.Uint64
	seekDone atomic.Uint64
	started  atomic.Bool
	log      logrus.FieldLogger

	play   func(beep.Streamer)
	lock   func()
	unlock func()
}

var _ clock.Device = (*Player)(nil)

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, beep.Format{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	case ".wav":
		return wav.Decode(f)
	}
	f.Close()
	return nil, beep.Format{}, fmt.Errorf("unsupported audio file %s", path)
}

// Open decodes path and initialises the speaker for it.
func Open(path string, rate float64, log logrus.FieldLogger) (*Player, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if math.IsNaN(rate) || rate <= 0 {
		rate = 1
	}
	streamer, format, err := decode(path)
	if nil != err {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}

	sr := beep.SampleRate(math.Round(float64(format.SampleRate) * rate))
	if err := speaker.Init(sr, format.SampleRate.N(time.Second/60)); nil != err {
		streamer.Close()
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	p := newPlayer(streamer, format, log)
	p.play = func(s beep.Streamer) { speaker.Play(s) }
	p.lock = speaker.Lock
	p.unlock = speaker.Unlock
	log.WithFields(logrus.Fields{
		"file":        filepath.Base(path),
		"sample_rate": format.SampleRate,
		"rate":        rate,
	}).Info("audio opened")
	return p, nil
}

func newPlayer(streamer beep.StreamSeekCloser, format beep.Format, log logrus.FieldLogger) *Player {
	p := &Player{
		streamer: streamer,
		format:   format,
		counter:  clock.NewSampleCounter(int(format.SampleRate), format.NumChannels),
		log:      log,
		play:     func(beep.Streamer) {},
		lock:     func() {},
		unlock:   func() {},
	}
	p.ctrl = &beep.Ctrl{Streamer: &counting{s: streamer, counter: p.counter, channels: format.NumChannels}, Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	return p
}

// SetVolume scales the output linearly, 0 is silent and 1 unchanged.
func (p *Player) SetVolume(v float64) {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	v = math.Min(v, 1)
	p.lock()
	p.volume.Silent = v == 0
	if v > 0 {
		p.volume.Volume = math.Log2(v)
	}
	p.unlock()
}

// Play starts the song. Calling it again only unpauses.
func (p *Player) Play() {
	p.lock()
	p.ctrl.Paused = false
	p.unlock()
	if !p.started.Swap(true) {
		p.play(p.volume)
	}
}

// PositionSeconds is read from the sample counter the audio callback
// advances.
func (p *Player) PositionSeconds() float64 {
	return p.counter.Seconds()
}

// Seek moves playback without blocking the caller. Seeking reports true
// until the speaker has taken the newest position.
func (p *Player) Seek(seconds float64) error {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	frame := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if l := p.streamer.Len(); frame > l {
		frame = l
	}
	gen := p.seekGen.Add(1)
	go func() {
		p.lock()
		defer p.unlock()
		if gen != p.seekGen.Load() {
			// superseded, the later seek moves the stream
			return
		}
		if err := p.streamer.Seek(frame); nil != err {
			p.log.WithError(err).Warn("audio seek failed")
		} else {
			p.counter.Store(uint64(frame) * uint64(p.channels()))
		}
		p.seekDone.Store(gen)
	}()
	return nil
}

// Seeking reports whether the latest seek has not been applied yet.
func (p *Player) Seeking() bool {
	return p.seekDone.Load() != p.seekGen.Load()
}

func (p *Player) channels() int {
	if p.format.NumChannels < 1 {
		return 1
	}
	return p.format.NumChannels
}

// Length is the song length in seconds.
func (p *Player) Length() float64 {
	return p.format.SampleRate.D(p.streamer.Len()).Seconds()
}

func (p *Player) Close() error {
	p.lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	p.unlock()
	return p.streamer.Close()
}

// counting passes audio through and counts what the speaker pulled.
type counting struct {
	s        beep.Streamer
	counter  *clock.SampleCounter
	channels int
}

func (c *counting) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.s.Stream(samples)
	ch := c.channels
	if ch < 1 {
		ch = 1
	}
	c.counter.Add(n * ch)
	return n, ok
}

func (c *counting) Err() error {
	return c.s.Err()
}
