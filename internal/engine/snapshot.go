package engine

import (
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
)

// Snapshot is an immutable copy of the session state for one tick. Renderers
// and spectators only ever see these.
type Snapshot struct {
	Taken          time.Time       `json:"taken"`
	TimeMs         float64         `json:"time_ms"`
	Phase          Phase           `json:"phase"`
	Rate           float64         `json:"rate"`
	ScrollSpeedMs  float64         `json:"scroll_speed_ms"`
	VisibleNotes   []game.Note     `json:"visible_notes"`
	KeysHeld       []bool          `json:"keys_held"`
	Score          int             `json:"score"`
	Accuracy       float64         `json:"accuracy"`
	Combo          int             `json:"combo"`
	MaxCombo       int             `json:"max_combo"`
	Stats          game.HitStats   `json:"hit_stats"`
	RemainingNotes int             `json:"remaining_notes"`
	LastJudgement  *game.Judgement `json:"last_judgement,omitempty"`
	LastTimingMs   *float64        `json:"last_timing_ms,omitempty"`
	NPS            float64         `json:"nps"`
	Practice       bool            `json:"practice"`
	Checkpoints    []int64         `json:"checkpoints_us"`
	DurationMs     float64         `json:"duration_ms"`
}

// Snapshot copies the current state. Visible notes are the unhit notes from
// the head up to the scroll window plus a lead in.
func (e *Engine) Snapshot() Snapshot {
	now := e.clock.Now()
	limitUs := int64((now + e.scrollSpeed*e.clock.Rate() + visibleLeadMs) * 1000)

	visible := []game.Note{}
	for i := e.head; i < len(e.chart.Notes); i++ {
		n := e.chart.Notes[i]
		if n.TimeUs > limitUs {
			break
		}
		if !n.Hit {
			visible = append(visible, n)
		}
	}

	remaining := int(e.chart.NoteCount) - e.tally.NotesPassed
	if remaining < 0 {
		remaining = 0
	}

	s := Snapshot{
		Taken:          time.Now(),
		TimeMs:         now,
		Phase:          e.Phase(),
		Rate:           e.clock.Rate(),
		ScrollSpeedMs:  e.scrollSpeed,
		VisibleNotes:   visible,
		KeysHeld:       e.KeysHeld(),
		Score:          e.tally.Score,
		Accuracy:       e.tally.Stats.Accuracy(),
		Combo:          e.tally.Combo,
		MaxCombo:       e.tally.MaxCombo,
		Stats:          e.tally.Stats,
		RemainingNotes: remaining,
		NPS:            e.nps.rate(),
		Practice:       e.practice,
		Checkpoints:    e.recorder.Checkpoints(),
		DurationMs:     float64(e.chart.DurationUs()) / 1000,
	}
	if e.hasLast {
		j := e.last
		s.LastJudgement = &j
	}
	if e.hasTiming {
		ms := float64(e.lastTiming) / 1000
		s.LastTimingMs = &ms
	}
	return s
}
