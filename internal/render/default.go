package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/theme"
	"golang.org/x/term"
)

const (
	defaultRows    = 40
	defaultCols    = 120
	defaultSpacing = 6
	defaultBarRow  = 8
	judgementShown = 500 * time.Millisecond
)

// DefaultRenderer draws snapshots to a terminal with ANSI escapes. Zero
// values of the exported fields are replaced with defaults by Init.
type DefaultRenderer struct {
	Out     io.Writer
	Theme   theme.Theme
	Rows    int
	Cols    int
	Spacing int // terminal columns between keys
	BarRow  int // rows from the bottom of the screen to the hit bar
	Frames  int // frames a judgement stays on screen

	buffer       strings.Builder
	restoreState *term.State
	decorations  []*decoration
	drawn        []cell
	judged       int
}

type decoration struct {
	X, Y    uint16
	Content string
	Width   int
	Frames  int // remaining frames until removed
}

type cell struct {
	row, col uint16
}

func (r *DefaultRenderer) defaults() {
	if nil == r.Out {
		r.Out = os.Stdout
	}
	if nil == r.Theme {
		r.Theme = theme.NewDefaultTheme(nil)
	}
	if r.Spacing <= 0 {
		r.Spacing = defaultSpacing
	}
	if r.BarRow <= 0 {
		r.BarRow = defaultBarRow
	}
	if r.Frames <= 0 {
		r.Frames = 120
	}
	if r.Rows <= 0 || r.Cols <= 0 {
		r.Rows, r.Cols = defaultRows, defaultCols
		if f, ok := r.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			if cols, rows, err := term.GetSize(int(f.Fd())); nil == err {
				r.Rows, r.Cols = rows, cols
			}
		}
	}
}

func (r *DefaultRenderer) Init() error {
	r.defaults()
	if f, ok := r.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if nil != err {
			return fmt.Errorf("unable to enter raw mode: %w", err)
		}
		r.restoreState = state
	}

	_, err := fmt.Fprintf(r.Out, "%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
	return err
}

func (r *DefaultRenderer) Deinit() error {
	fmt.Fprintf(r.Out, "%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	if nil == r.restoreState {
		return nil
	}
	f := r.Out.(*os.File)
	return term.Restore(int(f.Fd()), r.restoreState)
}

func (r *DefaultRenderer) AddDecoration(col, row uint16, content string, frames int) {
	r.decorations = append(r.decorations, &decoration{
		X:       col,
		Y:       row,
		Content: content,
		Width:   visibleWidth(content),
		Frames:  frames,
	})
	r.Fill(row, col, content)
}

func (r *DefaultRenderer) tickDecorations() {
	nd := make([]*decoration, 0, len(r.decorations))
	for _, d := range r.decorations {
		if d.Frames == 0 {
			r.Fill(d.Y, d.X, strings.Repeat(" ", d.Width))
			continue
		}
		nd = append(nd, d)
		d.Frames--
	}
	r.decorations = nd
}

// RenderLoop draws the newest snapshot once per period, skipping any that
// arrived in between. It returns nil after the final snapshot once the
// channel is closed.
func (r *DefaultRenderer) RenderLoop(ctx context.Context, period time.Duration, snapshots <-chan engine.Snapshot) error {
	r.defaults()
	if period <= 0 {
		period = time.Second / 240
	}
	r.Frames = int(judgementShown / period)
	var latest engine.Snapshot
	have, open := false, true
	for {
		now := time.Now()
		deadline := now.Add(period)

	drain:
		for open {
			select {
			case s, ok := <-snapshots:
				if !ok {
					open = false
					break drain
				}
				latest, have = s, true
			default:
				break drain
			}
		}

		if have {
			r.Render(latest)
		}
		r.tickDecorations()
		if err := r.flush(); nil != err {
			return err
		}
		if !open {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(deadline)):
		}
	}
}

// columns returns the terminal column of each chart column, centred around
// the middle of the screen.
func (r *DefaultRenderer) columns(n int) []int {
	mc := r.Cols >> 1
	cis := make([]int, n)
	for i := range cis {
		cis[i] = mc - r.Spacing*(n-1) + i*2*r.Spacing
	}
	return cis
}

// rowFor converts a note time to a screen row. Notes fall from the top to
// the hit bar, covering the scroll window in song time.
func (r *DefaultRenderer) rowFor(s *engine.Snapshot, timeMs float64) int {
	bar := r.Rows - r.BarRow
	window := s.ScrollSpeedMs * s.Rate
	if window <= 0 {
		window = engine.DefaultScrollSpeedMs
	}
	distance := (timeMs - s.TimeMs) / window * float64(bar-1)
	return bar - int(math.Round(distance))
}

func (r *DefaultRenderer) Render(s engine.Snapshot) {
	r.defaults()
	for _, c := range r.drawn {
		r.Fill(c.row, c.col, " ")
	}
	r.drawn = r.drawn[:0]

	cis := r.columns(len(s.KeysHeld))
	bar := r.Rows - r.BarRow
	cen := r.Rows >> 1

	// Render the hit bar
	for i, held := range s.KeysHeld {
		r.Fill(uint16(bar), uint16(cis[i]), r.Theme.RenderHitField(uint8(i), held))
	}

	// Render notes, holds first so heads are drawn over bodies
	body, _ := r.Theme.Resolve(theme.IDHoldBody)
	for _, n := range s.VisibleNotes {
		if n.DurationUs == 0 || body == "" || int(n.Column) >= len(cis) {
			continue
		}
		top := r.rowFor(&s, float64(n.EndUs())/1000)
		head := r.rowFor(&s, n.TimeMs())
		for row := max(top, 1); row < head && row < bar; row++ {
			r.put(row, cis[n.Column], body)
		}
	}
	for _, n := range s.VisibleNotes {
		if int(n.Column) >= len(cis) {
			continue
		}
		row := r.rowFor(&s, n.TimeMs())
		if row > 0 && row < r.Rows && row != bar {
			r.put(row, cis[n.Column], r.Theme.RenderNote(n))
		}
	}

	// Show the newest judgement in the middle of the field
	if judged := s.Stats.Judged(); judged != r.judged {
		r.judged = judged
		if nil != s.LastJudgement {
			text := r.Theme.RenderJudgement(*s.LastJudgement)
			if nil != s.LastTimingMs {
				text += fmt.Sprintf(" %+.1fms", *s.LastTimingMs)
			}
			col := (r.Cols - visibleWidth(text)) >> 1
			r.clearDecorationsAt(uint16(cen))
			r.AddDecoration(uint16(max(col, 1)), uint16(cen), text, r.Frames)
		}
	}

	sideCol := uint16(2)
	if len(cis) > 0 && cis[0]-36 > 2 {
		sideCol = uint16(cis[0] - 36)
	}
	r.Fill(2, sideCol, fmt.Sprintf("%12s  %-10s", "", phaseLabel(s.Phase)))
	r.Fill(4, sideCol, fmt.Sprintf("%12s  %s / %s", "Time:", clockTime(s.TimeMs), clockTime(s.DurationMs)))
	r.Fill(5, sideCol, fmt.Sprintf("%12s  %6.2fx", "Rate:", s.Rate))
	r.Fill(7, sideCol, fmt.Sprintf("%12s  %8d", "Score:", s.Score))
	r.Fill(8, sideCol, fmt.Sprintf("%12s  %7.2f%%", "Accuracy:", s.Accuracy))
	r.Fill(9, sideCol, fmt.Sprintf("%12s  %8d", "Combo:", s.Combo))
	r.Fill(10, sideCol, fmt.Sprintf("%12s  %8d", "Max Combo:", s.MaxCombo))
	r.Fill(11, sideCol, fmt.Sprintf("%12s  %8.1f", "NPS:", s.NPS))
	r.Fill(12, sideCol, fmt.Sprintf("%12s  %8d", "Remaining:", s.RemainingNotes))
	for i, j := range game.Judgements {
		label := fmt.Sprintf("%11s:", j.String())
		r.FillColor(uint16(14+i), sideCol, r.Theme.JudgementColor(j), label)
		r.Fill(uint16(14+i), sideCol+12, fmt.Sprintf("  %8d", s.Stats.Count(j)))
	}
	if s.Practice {
		r.Fill(uint16(15+len(game.Judgements)), sideCol, fmt.Sprintf("%12s  %8d", "Checkpoints:", len(s.Checkpoints)))
	}
}

func (r *DefaultRenderer) clearDecorationsAt(row uint16) {
	for _, d := range r.decorations {
		if d.Y == row {
			d.Frames = 0
		}
	}
	r.tickDecorations()
}

func (r *DefaultRenderer) put(row, col int, message string) {
	if row <= 0 || col <= 0 {
		return
	}
	r.Fill(uint16(row), uint16(col), message)
	r.drawn = append(r.drawn, cell{uint16(row), uint16(col)})
}

func (r *DefaultRenderer) Fill(row, column uint16, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

func (r *DefaultRenderer) FillColor(row, column uint16, c theme.Color, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H\033[38;2;")
	r.buffer.WriteString(strconv.FormatInt(int64(c.R), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.G), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.B), 10))
	r.buffer.WriteString("m")
	r.buffer.WriteString(message)
	r.buffer.WriteString("\033[0m")
}

func (r *DefaultRenderer) flush() error {
	if r.buffer.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(r.Out, r.buffer.String())
	r.buffer.Reset()
	return err
}

func phaseLabel(p engine.Phase) string {
	switch p {
	case engine.Pretiming:
		return "Get ready"
	case engine.Finished:
		return "Finished"
	}
	return ""
}

func clockTime(ms float64) string {
	neg := ""
	if ms < 0 {
		neg, ms = "-", -ms
	}
	s := int(ms / 1000)
	return fmt.Sprintf("%s%d:%02d", neg, s/60, s%60)
}

// visibleWidth counts the runes of s that are not part of an escape sequence.
func visibleWidth(s string) int {
	w := 0
	for i := 0; i < len(s); {
		if s[i] == '\033' {
			j := i + 1
			if j < len(s) && s[j] == '[' {
				j++
				for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
					j++
				}
				j++
			}
			i = j
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		w++
	}
	return w
}
