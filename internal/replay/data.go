// Package replay records raw play input and re-derives judgements from it.
// Judgements are never stored, so a replay can be scored again under any hit
// window.
package replay

import (
	"fmt"
	"math"

	"git.lost.host/meutraa/tempo/internal/game"
)

// FormatVersion is written as the first byte of every encoded replay.
const FormatVersion uint8 = 5

// CheckpointMinIntervalUs is the smallest gap between two stored checkpoints.
const CheckpointMinIntervalUs int64 = 15_000_000

// Input is one press or release. Payload packs (column << 1) | press.
type Input struct {
	TimeUs  int64 `json:"time_us"`
	Payload uint8 `json:"payload"`
}

// NewInput packs an input. Columns wrap at game.MaxColumns.
func NewInput(timeUs int64, column uint8, press bool) Input {
	p := (column & (game.MaxColumns - 1)) << 1
	if press {
		p |= 1
	}
	return Input{TimeUs: timeUs, Payload: p}
}

func (in Input) Column() uint8 {
	return in.Payload >> 1
}

func (in Input) IsPress() bool {
	return in.Payload&1 != 0
}

func (in Input) String() string {
	kind := "release"
	if in.IsPress() {
		kind = "press"
	}
	return fmt.Sprintf("%s col %d @ %dus", kind, in.Column(), in.TimeUs)
}

// Data is the persisted replay. Hit windows are not part of it.
type Data struct {
	Version     uint8   `json:"version"`
	Inputs      []Input `json:"inputs"`
	Rate        float64 `json:"rate"`
	Practice    bool    `json:"practice"`
	Checkpoints []int64 `json:"checkpoints"`
}

func New(rate float64) *Data {
	return &Data{
		Version:     FormatVersion,
		Inputs:      []Input{},
		Rate:        rate,
		Checkpoints: []int64{},
	}
}

func NewPractice(rate float64) *Data {
	d := New(rate)
	d.Practice = true
	return d
}

func (d *Data) AddInput(timeUs int64, column uint8, press bool) {
	d.Inputs = append(d.Inputs, NewInput(timeUs, column, press))
}

func (d *Data) AddPress(timeUs int64, column uint8) {
	d.AddInput(timeUs, column, true)
}

func (d *Data) AddRelease(timeUs int64, column uint8) {
	d.AddInput(timeUs, column, false)
}

// AddCheckpoint stores a checkpoint marker unless it is closer than
// CheckpointMinIntervalUs to the previous one.
func (d *Data) AddCheckpoint(timeUs int64) bool {
	if last, ok := d.LastCheckpoint(); ok && timeUs-last < CheckpointMinIntervalUs {
		return false
	}
	d.Checkpoints = append(d.Checkpoints, timeUs)
	return true
}

func (d *Data) LastCheckpoint() (int64, bool) {
	if len(d.Checkpoints) == 0 {
		return 0, false
	}
	return d.Checkpoints[len(d.Checkpoints)-1], true
}

// TruncateInputsAfter drops every input at or after timeUs.
func (d *Data) TruncateInputsAfter(timeUs int64) {
	kept := d.Inputs[:0]
	for _, in := range d.Inputs {
		if in.TimeUs < timeUs {
			kept = append(kept, in)
		}
	}
	d.Inputs = kept
}

// TruncateInputs keeps only the first n inputs in recording order.
func (d *Data) TruncateInputs(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(d.Inputs) {
		d.Inputs = d.Inputs[:n]
	}
}

func (d *Data) InputCount() int {
	return len(d.Inputs)
}

func (d *Data) Empty() bool {
	return len(d.Inputs) == 0
}

func (d *Data) Clone() *Data {
	c := *d
	c.Inputs = append(make([]Input, 0, len(d.Inputs)), d.Inputs...)
	c.Checkpoints = append(make([]int64, 0, len(d.Checkpoints)), d.Checkpoints...)
	return &c
}

// Validate rejects data no live session could have produced. Practice
// replays rewind, so only they may go back in time.
func (d *Data) Validate() error {
	if d.Version != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if math.IsNaN(d.Rate) || math.IsInf(d.Rate, 0) || d.Rate <= 0 {
		return fmt.Errorf("%w: rate %v", ErrCorrupt, d.Rate)
	}
	if !d.Practice {
		for i := 1; i < len(d.Inputs); i++ {
			if d.Inputs[i].TimeUs < d.Inputs[i-1].TimeUs {
				return fmt.Errorf("%w: input %d at %dus after %dus", ErrNonMonotonic, i, d.Inputs[i].TimeUs, d.Inputs[i-1].TimeUs)
			}
		}
	}
	for i := 1; i < len(d.Checkpoints); i++ {
		if d.Checkpoints[i]-d.Checkpoints[i-1] < CheckpointMinIntervalUs {
			return fmt.Errorf("%w: checkpoint %d is %dus after the previous one", ErrCorrupt, i, d.Checkpoints[i]-d.Checkpoints[i-1])
		}
	}
	return nil
}
