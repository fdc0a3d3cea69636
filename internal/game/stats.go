package game

// HitStats counts judgements. It carries no state beyond the judgement stream
// that produced it.
type HitStats struct {
	Marv     int `json:"marv"`
	Perfect  int `json:"perfect"`
	Great    int `json:"great"`
	Good     int `json:"good"`
	Bad      int `json:"bad"`
	Miss     int `json:"miss"`
	GhostTap int `json:"ghost_tap"`
}

func (s *HitStats) Add(j Judgement) {
	switch j {
	case Marv:
		s.Marv++
	case Perfect:
		s.Perfect++
	case Great:
		s.Great++
	case Good:
		s.Good++
	case Bad:
		s.Bad++
	case Miss:
		s.Miss++
	case GhostTap:
		s.GhostTap++
	}
}

func (s HitStats) Count(j Judgement) int {
	switch j {
	case Marv:
		return s.Marv
	case Perfect:
		return s.Perfect
	case Great:
		return s.Great
	case Good:
		return s.Good
	case Bad:
		return s.Bad
	case Miss:
		return s.Miss
	case GhostTap:
		return s.GhostTap
	}
	return 0
}

// Judged is the number of notes that received a judgement, misses included.
func (s HitStats) Judged() int {
	return s.Marv + s.Perfect + s.Great + s.Good + s.Bad + s.Miss
}

// Accuracy is a weighted percentage in [0, 100]; zero when nothing was judged.
func (s HitStats) Accuracy() float64 {
	total := float64(s.Judged())
	if total == 0 {
		return 0
	}
	points := float64(s.Marv+s.Perfect)*6 +
		float64(s.Great)*4 +
		float64(s.Good)*2 +
		float64(s.Bad)
	return points / (total * 6) * 100
}

// Tally applies judgements to score, combo and counters. The live engine and
// the replay simulator both fold their judgement streams through it.
type Tally struct {
	Score       int      `json:"score"`
	Combo       int      `json:"combo"`
	MaxCombo    int      `json:"max_combo"`
	NotesPassed int      `json:"notes_passed"`
	Stats       HitStats `json:"hit_stats"`
}

func (t *Tally) Apply(j Judgement) {
	t.Stats.Add(j)
	switch {
	case j == GhostTap:
		return
	case j == Miss:
		t.Combo = 0
	default:
		t.Combo++
		if t.Combo > t.MaxCombo {
			t.MaxCombo = t.Combo
		}
		t.Score += j.Score()
	}
	t.NotesPassed++
}
