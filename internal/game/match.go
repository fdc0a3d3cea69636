package game

// HitState is the per-note hit flag a Matcher reads and writes. The live
// engine uses the chart itself; the replay simulator uses a ShadowState so
// the original chart is never touched.
type HitState interface {
	IsHit(i int) bool
	MarkHit(i int)
}

// ShadowState is a private hit bitmap.
type ShadowState []bool

func NewShadowState(n int) ShadowState {
	return make(ShadowState, n)
}

func (s ShadowState) IsHit(i int) bool {
	return s[i]
}

func (s ShadowState) MarkHit(i int) {
	s[i] = true
}

// Matcher holds the note matching and miss sweep rules shared by live play
// and replay simulation.
type Matcher struct {
	Notes  []Note
	State  HitState
	Window HitWindow
}

func (m Matcher) clampHead(head int) int {
	if head < 0 {
		return 0
	}
	if head > len(m.Notes) {
		return len(m.Notes)
	}
	return head
}

// Sweep advances head past hit notes and past unhit notes whose miss window
// closed before nowUs, marking the latter hit. onMiss is called for each
// judgeable note that was missed; mines are passed silently. Sweeping stops at
// the first unhit note still inside its window.
func (m Matcher) Sweep(head int, nowUs int64, onMiss func(i int)) int {
	head = m.clampHead(head)
	for head < len(m.Notes) {
		if m.State.IsHit(head) {
			head++
			continue
		}
		n := &m.Notes[head]
		if nowUs <= addSat(n.TimeUs, m.Window.MissUs) {
			break
		}
		m.State.MarkHit(head)
		if n.Judgeable() && onMiss != nil {
			onMiss(head)
		}
		head++
	}
	return head
}

// Best finds the unhit note in column closest to nowUs, scanning forward from
// head until notes start beyond the miss radius. The offset is press time
// minus note time, negative when early. Ties keep the earlier note.
func (m Matcher) Best(head int, column uint8, nowUs int64) (int, int64, bool) {
	head = m.clampHead(head)
	limit := addSat(nowUs, m.Window.MissUs)
	best, bestOffset, bestAbs := -1, int64(0), int64(0)
	for i := head; i < len(m.Notes); i++ {
		n := &m.Notes[i]
		if n.TimeUs > limit {
			break
		}
		if n.Column != column || !n.Judgeable() || m.State.IsHit(i) {
			continue
		}
		offset := subSat(nowUs, n.TimeUs)
		d := absSat(offset)
		if d > m.Window.MissUs {
			continue
		}
		if best < 0 || d < bestAbs {
			best, bestOffset, bestAbs = i, offset, d
		}
	}
	return best, bestOffset, best >= 0
}

// Press resolves a press at nowUs: sweeps misses up to nowUs, then marks and
// judges the nearest note. It returns the new head, the judgement and the
// matched note index (-1 for a ghost tap).
func (m Matcher) Press(head int, column uint8, nowUs int64, onMiss func(i int)) (int, Judgement, int, int64) {
	head = m.Sweep(head, nowUs, onMiss)
	idx, offset, ok := m.Best(head, column, nowUs)
	if !ok {
		return head, GhostTap, -1, 0
	}
	m.State.MarkHit(idx)
	j, _ := m.Window.Judge(offset)
	return head, j, idx, offset
}
