package game

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyChart is returned when a chart has no notes to play.
var ErrEmptyChart = errors.New("chart has no notes")

// Chart is an immutable, time sorted sequence of notes. Only Note.Hit changes
// after load, and only through the live judgement engine.
type Chart struct {
	Notes      []Note
	Measures   []Measure
	NoteCount  int64
	HoldCount  int64
	MineCount  int64
	Difficulty Difficulty
	AudioFile  string
}

// NewChart sorts notes ascending by time, validates columns and fills the
// counters. The given slice is copied.
func NewChart(notes []Note, difficulty Difficulty) (*Chart, error) {
	ns := make([]Note, len(notes))
	copy(ns, notes)
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].TimeUs < ns[j].TimeUs
	})

	c := &Chart{Notes: ns, Difficulty: difficulty}
	for i := range ns {
		n := &ns[i]
		if int(n.Column) >= MaxColumns {
			return nil, fmt.Errorf("note %d: column %d out of range", i, n.Column)
		}
		if n.DurationUs < 0 {
			return nil, fmt.Errorf("note %d: negative duration %d", i, n.DurationUs)
		}
		n.Hit = false
		switch n.Kind {
		case KindMine:
			c.MineCount++
		case KindHold, KindBurst:
			c.HoldCount++
			c.NoteCount++
		default:
			c.NoteCount++
		}
	}
	return c, nil
}

func (c *Chart) Len() int {
	return len(c.Notes)
}

// IsHit and MarkHit let the live chart serve as the HitState of a Matcher.
func (c *Chart) IsHit(i int) bool {
	return c.Notes[i].Hit
}

func (c *Chart) MarkHit(i int) {
	c.Notes[i].Hit = true
}

// DurationUs is the timestamp of the last note.
func (c *Chart) DurationUs() int64 {
	if len(c.Notes) == 0 {
		return 0
	}
	return c.Notes[len(c.Notes)-1].TimeUs
}

// HitBitmap copies the hit flag of every note.
func (c *Chart) HitBitmap() []bool {
	bm := make([]bool, len(c.Notes))
	for i := range c.Notes {
		bm[i] = c.Notes[i].Hit
	}
	return bm
}

// RestoreHits overwrites hit flags from a bitmap. Entries beyond the chart are ignored.
func (c *Chart) RestoreHits(bm []bool) {
	for i := range c.Notes {
		c.Notes[i].Hit = i < len(bm) && bm[i]
	}
}

// ResetHits clears every hit flag.
func (c *Chart) ResetHits() {
	for i := range c.Notes {
		c.Notes[i].Hit = false
	}
}

// Clone returns a deep copy, hit state included.
func (c *Chart) Clone() *Chart {
	cc := *c
	cc.Notes = make([]Note, len(c.Notes))
	copy(cc.Notes, c.Notes)
	cc.Measures = make([]Measure, len(c.Measures))
	copy(cc.Measures, c.Measures)
	return &cc
}

// Hash identifies the playable content of the chart. Hit state, names and
// measures do not contribute.
func (c *Chart) Hash() string {
	h := sha256.New()
	var buf [18]byte
	for _, n := range c.Notes {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(n.TimeUs))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(n.DurationUs))
		buf[16] = n.Column
		buf[17] = byte(n.Kind)
		h.Write(buf[:])
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
