package engine

const npsWindowUs = 1_000_000

// npsWindow counts presses over the last second of song time.
type npsWindow struct {
	times []int64
}

func (w *npsWindow) add(timeUs int64) {
	w.times = append(w.times, timeUs)
}

func (w *npsWindow) prune(nowUs int64) {
	cutoff := nowUs - npsWindowUs
	n := 0
	for n < len(w.times) && w.times[n] < cutoff {
		n++
	}
	if n > 0 {
		w.times = append(w.times[:0], w.times[n:]...)
	}
}

func (w *npsWindow) rate() float64 {
	return float64(len(w.times))
}

func (w *npsWindow) reset() {
	w.times = w.times[:0]
}
