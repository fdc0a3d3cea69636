// Package clock turns a noisy audio device position into a stable song time.
package clock

import "math"

// PreRollMs is how long the song clock runs before playback starts.
const PreRollMs = 3000

const (
	deadbandMs = 5.0
	snapMs     = 80.0
	damping    = 0.35
)

// Device is the playback position provider the clock is corrected against.
// Positions are in song seconds, already adjusted for the playback rate.
type Device interface {
	Play()
	PositionSeconds() float64
	Seek(seconds float64) error
	Seeking() bool
}

// Correction describes what a resync did to the song time.
type Correction uint8

const (
	Kept Correction = iota
	Damped
	Snapped
	Suppressed
)

func (c Correction) String() string {
	switch c {
	case Kept:
		return "kept"
	case Damped:
		return "damped"
	case Snapped:
		return "snapped"
	case Suppressed:
		return "suppressed"
	}
	return "unknown"
}

// AudioClock is the song time in milliseconds. It is owned by the logic
// goroutine; only the Device may be touched by other goroutines.
//
// The smoothed estimate may be pulled back by a resync, but the song time
// handed out by Now never decreases between seeks. A lagging device holds
// the song time until the estimate catches up again.
type AudioClock struct {
	rate    float64
	nowMs   float64
	highMs  float64
	device  Device
	started bool
	seeking bool
}

// New creates a clock at -PreRollMs. A nil device gives a free running clock,
// which is what a session without audio plays against.
func New(rate float64, device Device) *AudioClock {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		rate = 1
	}
	return &AudioClock{
		rate:   rate,
		nowMs:  -PreRollMs,
		highMs: -PreRollMs,
		device: device,
	}
}

func (c *AudioClock) Rate() float64 {
	return c.rate
}

// Now is the monotonic song time.
func (c *AudioClock) Now() float64 {
	return c.highMs
}

// Estimate is the smoothed song time before the monotonic hold.
func (c *AudioClock) Estimate() float64 {
	return c.nowMs
}

func (c *AudioClock) hold() {
	if c.nowMs > c.highMs {
		c.highMs = c.nowMs
	}
}

// NowUs is the song time rounded to whole microseconds.
func (c *AudioClock) NowUs() int64 {
	us := math.Round(c.highMs * 1000)
	if us >= math.MaxInt64 {
		return math.MaxInt64
	}
	if us <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(us)
}

// Advance moves the clock forward by dt seconds of wall time.
func (c *AudioClock) Advance(dt float64) {
	if math.IsNaN(dt) || dt <= 0 {
		return
	}
	c.nowMs += dt * 1000 * c.rate
	c.hold()
}

// Started reports whether playback has been started.
func (c *AudioClock) Started() bool {
	return c.started
}

// Start begins playback the first time it is called with the clock at or past
// zero. It reports whether this call started it.
func (c *AudioClock) Start() bool {
	if c.started || c.highMs < 0 {
		return false
	}
	c.started = true
	if c.device != nil {
		c.device.Play()
	}
	return true
}

// Resync corrects the song time toward the raw device time and returns the
// drift that was observed.
func (c *AudioClock) Resync(rawMs float64) (float64, Correction) {
	if c.seeking {
		if c.device != nil && c.device.Seeking() {
			return 0, Suppressed
		}
		c.seeking = false
	}
	if math.IsNaN(rawMs) || math.IsInf(rawMs, 0) {
		return 0, Kept
	}
	drift := rawMs - c.nowMs
	switch d := math.Abs(drift); {
	case d <= deadbandMs:
		return drift, Kept
	case d <= snapMs:
		c.nowMs += damping * drift
		c.hold()
		return drift, Damped
	default:
		c.nowMs = rawMs
		c.hold()
		return drift, Snapped
	}
}

// Sync resyncs against the device position. Without a device, or before
// playback started, the clock is left alone.
func (c *AudioClock) Sync() (float64, Correction) {
	if c.device == nil || !c.started {
		return 0, Kept
	}
	if c.seeking && c.device.Seeking() {
		return 0, Suppressed
	}
	return c.Resync(c.device.PositionSeconds() * 1000)
}

// Seek jumps the song time to ms and asks the device to follow. Resync stays
// suppressed until the device reports the seek is done.
func (c *AudioClock) Seek(ms float64) error {
	c.nowMs, c.highMs = ms, ms
	if c.device == nil {
		return nil
	}
	c.seeking = true
	return c.device.Seek(math.Max(0, ms) / 1000)
}

// Seeking reports whether a seek is waiting on the device.
func (c *AudioClock) Seeking() bool {
	if c.seeking && (c.device == nil || !c.device.Seeking()) {
		c.seeking = false
	}
	return c.seeking
}
