package game

import (
	"fmt"
	"math"
)

// HitWindowMode selects how a hit window is derived from its scalar setting.
type HitWindowMode string

const (
	ModeOsuOD        HitWindowMode = "osu_od"
	ModeEtternaJudge HitWindowMode = "etterna_judge"
)

func (m HitWindowMode) String() string {
	switch m {
	case ModeOsuOD:
		return "osu! OD"
	case ModeEtternaJudge:
		return "Etterna Judge"
	}
	return string(m)
}

// ConfigError reports hit window parameters that cannot produce a window.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// HitWindow holds six nested, symmetric radii in microseconds.
// Marv < Perfect < Great < Good < Bad < Miss.
type HitWindow struct {
	MarvUs    int64 `json:"marv_us"`
	PerfectUs int64 `json:"perfect_us"`
	GreatUs   int64 `json:"great_us"`
	GoodUs    int64 `json:"good_us"`
	BadUs     int64 `json:"bad_us"`
	MissUs    int64 `json:"miss_us"`
}

// Etterna judge scales, J1 through J9, relative to J4.
var etternaScales = [...]float64{1.50, 1.33, 1.16, 1.00, 0.84, 0.66, 0.50, 0.33, 0.20}

// J4 radii in milliseconds.
var etternaBaseMs = [...]float64{22.5, 45, 90, 135, 180, 225}

// DefaultHitWindow is 16/50/65/100/150/200 ms.
func DefaultHitWindow() HitWindow {
	return HitWindow{
		MarvUs:    16_000,
		PerfectUs: 50_000,
		GreatUs:   65_000,
		GoodUs:    100_000,
		BadUs:     150_000,
		MissUs:    200_000,
	}
}

func fromMs(ms [6]float64) HitWindow {
	us := func(v float64) int64 { return int64(math.Round(v * 1000)) }
	return HitWindow{
		MarvUs:    us(ms[0]),
		PerfectUs: us(ms[1]),
		GreatUs:   us(ms[2]),
		GoodUs:    us(ms[3]),
		BadUs:     us(ms[4]),
		MissUs:    us(ms[5]),
	}
}

// NewOsuOD builds the osu!mania windows for an Overall Difficulty. OD is
// clamped to [0, 10]; NaN and infinities are rejected.
func NewOsuOD(od float64) (HitWindow, error) {
	if math.IsNaN(od) || math.IsInf(od, 0) {
		return HitWindow{}, &ConfigError{Field: "overall difficulty", Value: od, Reason: "not a finite number"}
	}
	od = math.Max(0, math.Min(10, od))
	return fromMs([6]float64{
		16,
		64 - 3*od,
		97 - 3*od,
		127 - 3*od,
		151 - 3*od,
		188 - 3*od,
	}), nil
}

// NewEtternaJudge builds the windows for an Etterna judge level between 1 and 9.
func NewEtternaJudge(level int) (HitWindow, error) {
	if level < 1 || level > len(etternaScales) {
		return HitWindow{}, &ConfigError{Field: "judge level", Value: float64(level), Reason: "must be between 1 and 9"}
	}
	scale := etternaScales[level-1]
	var ms [6]float64
	for i, base := range etternaBaseMs {
		ms[i] = base * scale
	}
	return fromMs(ms), nil
}

// NewHitWindow builds a window from a settings pair.
func NewHitWindow(mode HitWindowMode, value float64) (HitWindow, error) {
	switch mode {
	case ModeOsuOD:
		return NewOsuOD(value)
	case ModeEtternaJudge:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return HitWindow{}, &ConfigError{Field: "judge level", Value: value, Reason: "not a finite number"}
		}
		return NewEtternaJudge(int(math.Round(value)))
	}
	return HitWindow{}, &ConfigError{Field: "hit window mode " + string(mode), Value: value, Reason: "unknown mode"}
}

// Radii returns the radii in judgement order, Marv first.
func (w HitWindow) Radii() [6]int64 {
	return [6]int64{w.MarvUs, w.PerfectUs, w.GreatUs, w.GoodUs, w.BadUs, w.MissUs}
}

// Radius returns the outer edge of a judgement band; GhostTap has none.
func (w HitWindow) Radius(j Judgement) int64 {
	if j > Miss {
		return -1
	}
	return w.Radii()[j]
}

// Validate checks that the radii are positive and strictly widening.
func (w HitWindow) Validate() error {
	prev := int64(0)
	for i, r := range w.Radii() {
		if r <= prev {
			return &ConfigError{Field: Judgement(i).String() + " radius", Value: float64(r) / 1000, Reason: "radii must be positive and strictly widening"}
		}
		prev = r
	}
	return nil
}

// Judge maps a timing offset to a judgement. Bands are checked smallest first
// so an offset on a boundary gets the tighter judgement. Beyond the miss
// radius the press consumes nothing.
func (w HitWindow) Judge(offsetUs int64) (Judgement, bool) {
	d := absSat(offsetUs)
	for i, r := range w.Radii() {
		if d <= r {
			return Judgement(i), true
		}
	}
	return GhostTap, false
}

// JudgeMs is Judge for a millisecond offset.
func (w HitWindow) JudgeMs(offsetMs float64) (Judgement, bool) {
	if math.IsNaN(offsetMs) {
		return GhostTap, false
	}
	us := offsetMs * 1000
	if us >= math.MaxInt64 || us <= math.MinInt64 {
		return GhostTap, false
	}
	return w.Judge(int64(math.Round(us)))
}
