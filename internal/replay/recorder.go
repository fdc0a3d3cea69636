package replay

import "git.lost.host/meutraa/tempo/internal/game"

// Recorder appends raw input to a replay as it happens. It is owned by the
// logic goroutine and is not safe for concurrent use.
type Recorder struct {
	data *Data
}

func NewRecorder(rate float64, practice bool) *Recorder {
	d := New(rate)
	d.Practice = practice
	return &Recorder{data: d}
}

func (r *Recorder) Press(timeUs int64, column uint8) {
	r.data.AddPress(timeUs, column)
}

func (r *Recorder) Release(timeUs int64, column uint8) {
	r.data.AddRelease(timeUs, column)
}

// Checkpoint stores a checkpoint marker; see Data.AddCheckpoint.
func (r *Recorder) Checkpoint(timeUs int64) bool {
	return r.data.AddCheckpoint(timeUs)
}

// TruncateAfter discards input at or after timeUs, after a rewind.
func (r *Recorder) TruncateAfter(timeUs int64) {
	r.data.TruncateInputsAfter(timeUs)
}

// Rewind discards input recorded after the first n entries and releases
// every column at timeUs. The releases leave the rewind visible in the
// replay, so a simulation sweeps to the same point live play restored.
func (r *Recorder) Rewind(n int, timeUs int64, columns int) {
	r.data.TruncateInputs(n)
	for c := range min(max(columns, 1), game.MaxColumns) {
		r.data.AddRelease(timeUs, uint8(c))
	}
}

func (r *Recorder) Len() int {
	return len(r.data.Inputs)
}

func (r *Recorder) Practice() bool {
	return r.data.Practice
}

// Data returns a copy of everything recorded so far.
func (r *Recorder) Data() *Data {
	return r.data.Clone()
}

// Checkpoints returns a copy of the stored checkpoint markers.
func (r *Recorder) Checkpoints() []int64 {
	return append([]int64{}, r.data.Checkpoints...)
}
