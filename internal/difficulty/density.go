package difficulty

import (
	"math"
	"slices"
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
)

const (
	DensityName   = "density"
	defaultWindow = time.Second
	// share of the densest windows averaged for the stream rating
	peakShare = 0.1
)

// DensityCalculator rates a chart by how many notes land in each window of
// real time, and by how quickly notes repeat in the same column.
type DensityCalculator struct {
	Window time.Duration
}

func (d DensityCalculator) Analyze(chart *game.Chart, rate float64) (Info, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 1
	}
	window := d.Window
	if window <= 0 {
		window = defaultWindow
	}

	times := make([]float64, 0, len(chart.Notes))
	perColumn := map[uint8][]float64{}
	end := 0.0
	for i := range chart.Notes {
		n := &chart.Notes[i]
		if !n.Judgeable() {
			continue
		}
		t := float64(n.TimeUs) / 1000 / rate
		times = append(times, t)
		perColumn[n.Column] = append(perColumn[n.Column], t)
		end = math.Max(end, float64(n.EndUs())/1000/rate)
	}
	if len(times) == 0 {
		return Info{}, ErrNoNotes
	}

	duration := math.Max(end-times[0], 0)
	info := Info{DurationMs: duration}
	if duration > 0 {
		info.NPS = float64(len(times)) / (duration / 1000)
	}

	counts := densities(times, float64(window.Milliseconds()))
	stream := topMean(counts, peakShare)
	stamina := mean(counts)

	var gaps []float64
	for _, ts := range perColumn {
		for i := 1; i < len(ts); i++ {
			if g := ts[i] - ts[i-1]; g > 0 {
				gaps = append(gaps, 1000/g)
			}
		}
	}
	jack := topMean(gaps, peakShare)

	info.Ratings = []Rating{{
		Name:    DensityName,
		Overall: round2(0.6*stream + 0.25*jack + 0.15*stamina),
		Stream:  round2(stream),
		Jack:    round2(jack),
		Stamina: round2(stamina),
	}}
	return info, nil
}

// densities returns notes per second for consecutive windows starting at
// the first note. times must be sorted.
func densities(times []float64, windowMs float64) []float64 {
	start := times[0]
	n := int((times[len(times)-1]-start)/windowMs) + 1
	counts := make([]float64, n)
	for _, t := range times {
		counts[int((t-start)/windowMs)]++
	}
	perSecond := 1000 / windowMs
	for i := range counts {
		counts[i] *= perSecond
	}
	return counts
}

func topMean(values []float64, share float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	k := max(int(math.Ceil(float64(len(sorted))*share)), 1)
	return mean(sorted[len(sorted)-k:])
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
