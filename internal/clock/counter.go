package clock

import "sync/atomic"

// SampleCounter is written by the audio callback and read by the logic
// goroutine. It is the only value shared between the two.
type SampleCounter struct {
	samples    atomic.Uint64
	sampleRate int
	channels   int
}

// NewSampleCounter counts interleaved samples for a stream format.
func NewSampleCounter(sampleRate, channels int) *SampleCounter {
	if channels < 1 {
		channels = 1
	}
	return &SampleCounter{sampleRate: sampleRate, channels: channels}
}

// Add records n interleaved samples as played.
func (s *SampleCounter) Add(n int) {
	if n > 0 {
		s.samples.Add(uint64(n))
	}
}

// Store resets the counter, after a seek.
func (s *SampleCounter) Store(n uint64) {
	s.samples.Store(n)
}

func (s *SampleCounter) Load() uint64 {
	return s.samples.Load()
}

// Seconds is the played position of the stream.
func (s *SampleCounter) Seconds() float64 {
	if s.sampleRate <= 0 {
		return 0
	}
	frames := s.samples.Load() / uint64(s.channels)
	return float64(frames) / float64(s.sampleRate)
}

// SamplesAt is the counter value for a stream position in seconds.
func (s *SampleCounter) SamplesAt(seconds float64) uint64 {
	if seconds <= 0 || s.sampleRate <= 0 {
		return 0
	}
	return uint64(seconds*float64(s.sampleRate)) * uint64(s.channels)
}
