package game

// NoteKind is the gameplay behaviour of a note.
type NoteKind uint8

const (
	KindTap NoteKind = iota
	KindMine
	KindHold
	KindBurst
)

func (k NoteKind) String() string {
	switch k {
	case KindTap:
		return "tap"
	case KindMine:
		return "mine"
	case KindHold:
		return "hold"
	case KindBurst:
		return "burst"
	}
	return "unknown"
}

// MaxColumns is the number of columns a replay payload can address.
const MaxColumns = 128

type Note struct {
	TimeUs     int64    // The time the note should be hit
	Column     uint8    // The chart column
	Kind       NoteKind // Tap, mine, hold or burst
	DurationUs int64    // Length of a hold or burst, zero otherwise
	Denom      int      // The beat length, as a denominator, 4 = 1/4 beat

	// This is state
	Hit bool // Judged, either by a press or by scrolling past the miss window
}

// Judgeable reports whether a press can be matched to this note.
func (n *Note) Judgeable() bool {
	return n.Kind != KindMine
}

// EndUs is the time the note stops being relevant to the playfield.
func (n *Note) EndUs() int64 {
	return addSat(n.TimeUs, n.DurationUs)
}

// TimeMs returns the note time in milliseconds.
func (n *Note) TimeMs() float64 {
	return float64(n.TimeUs) / 1000
}
