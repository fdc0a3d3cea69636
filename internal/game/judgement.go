package game

// Judgement is the verdict for a single press or passed note, ordered from
// the tightest window to the loosest.
type Judgement uint8

const (
	Marv Judgement = iota
	Perfect
	Great
	Good
	Bad
	Miss
	GhostTap
)

// Judgements lists every judgement in severity order.
var Judgements = []Judgement{Marv, Perfect, Great, Good, Bad, Miss, GhostTap}

var judgementNames = [...]string{"Marvelous", "Perfect", "Great", "Good", "Bad", "Miss", "Ghost Tap"}

func (j Judgement) String() string {
	if int(j) < len(judgementNames) {
		return judgementNames[j]
	}
	return "Unknown"
}

// MarshalText keeps judgements readable in JSON snapshots.
func (j Judgement) MarshalText() ([]byte, error) {
	return []byte(j.String()), nil
}

// Score is the fixed tier value added for the judgement.
func (j Judgement) Score() int {
	switch j {
	case Marv, Perfect:
		return 300
	case Great:
		return 200
	case Good:
		return 100
	case Bad:
		return 50
	}
	return 0
}

// IsHit reports whether the judgement continues the combo.
func (j Judgement) IsHit() bool {
	return j <= Bad
}
