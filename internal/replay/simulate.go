package replay

import (
	"git.lost.host/meutraa/tempo/internal/game"
)

// HitTiming is the outcome for one note. Offsets are press time minus note
// time, negative when early; misses carry the miss radius.
type HitTiming struct {
	NoteIndex  int            `json:"note_index"`
	OffsetUs   int64          `json:"offset_us"`
	Judgement  game.Judgement `json:"judgement"`
	NoteTimeUs int64          `json:"note_time_us"`
}

func (h HitTiming) OffsetMs() float64 {
	return float64(h.OffsetUs) / 1000
}

// GhostTap is a press that matched no note.
type GhostTap struct {
	TimeUs int64 `json:"time_us"`
	Column uint8 `json:"column"`
}

type Result struct {
	Stats      game.HitStats `json:"hit_stats"`
	Accuracy   float64       `json:"accuracy"`
	Score      int           `json:"score"`
	MaxCombo   int           `json:"max_combo"`
	HitTimings []HitTiming   `json:"hit_timings"`
	GhostTaps  []GhostTap    `json:"ghost_taps"`
}

// Simulate replays the recorded input against the chart under hw. It uses
// the same matcher as live play over a private hit bitmap, so the chart is
// never modified and repeated calls give identical results.
//
// Practice replays go back in time after a retry. The retry releases every
// key at the checkpoint time, which sweeps to where the checkpoint was taken;
// input after it is judged at its own time against that state, as live play
// judged it.
func Simulate(d *Data, chart *game.Chart, hw game.HitWindow) Result {
	res := Result{HitTimings: []HitTiming{}, GhostTaps: []GhostTap{}}
	var notes []game.Note
	if chart != nil {
		notes = chart.Notes
	}
	shadow := game.NewShadowState(len(notes))
	m := game.Matcher{Notes: notes, State: shadow, Window: hw}

	var tally game.Tally
	miss := func(i int) {
		tally.Apply(game.Miss)
		res.HitTimings = append(res.HitTimings, HitTiming{
			NoteIndex:  i,
			OffsetUs:   hw.MissUs,
			Judgement:  game.Miss,
			NoteTimeUs: notes[i].TimeUs,
		})
	}

	head := 0
	for _, in := range d.Inputs {
		t := in.TimeUs
		if !in.IsPress() {
			head = m.Sweep(head, t, miss)
			continue
		}
		var (
			j      game.Judgement
			idx    int
			offset int64
		)
		head, j, idx, offset = m.Press(head, in.Column(), t, miss)
		tally.Apply(j)
		if idx < 0 {
			res.GhostTaps = append(res.GhostTaps, GhostTap{TimeUs: t, Column: in.Column()})
			continue
		}
		res.HitTimings = append(res.HitTimings, HitTiming{
			NoteIndex:  idx,
			OffsetUs:   offset,
			Judgement:  j,
			NoteTimeUs: notes[idx].TimeUs,
		})
	}

	for i := head; i < len(notes); i++ {
		if !shadow[i] && notes[i].Judgeable() {
			shadow.MarkHit(i)
			miss(i)
		}
	}

	res.Stats = tally.Stats
	res.Score = tally.Score
	res.MaxCombo = tally.MaxCombo
	res.Accuracy = res.Stats.Accuracy()
	return res
}

// Rejudge scores a replay under a different hit window.
func Rejudge(d *Data, chart *game.Chart, hw game.HitWindow) Result {
	return Simulate(d, chart, hw)
}

// RejudgeTimings recomputes stats from known offsets without matching
// again. It assumes every press would pair with the same note under hw,
// which does not hold when a wider window reaches a different note. Misses
// stay misses, and hits that fall outside the new miss radius become misses.
func RejudgeTimings(timings []HitTiming, hw game.HitWindow) (game.HitStats, float64) {
	var stats game.HitStats
	for _, h := range timings {
		if h.Judgement == game.Miss {
			stats.Add(game.Miss)
			continue
		}
		j, consumed := hw.Judge(h.OffsetUs)
		if !consumed {
			j = game.Miss
		}
		stats.Add(j)
	}
	return stats, stats.Accuracy()
}
