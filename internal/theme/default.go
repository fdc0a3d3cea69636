package theme

import (
	"fmt"
	"strings"

	"git.lost.host/meutraa/tempo/internal/game"
)

// Skin element ids understood by DefaultTheme.
const (
	IDNote         = "note"
	IDMine         = "mine"
	IDHold         = "hold"
	IDHoldBody     = "hold.body"
	IDBurst        = "burst"
	IDReceptor     = "receptor"
	IDReceptorHeld = "receptor.held"
	IDMissMarker   = "marker.miss"
)

var defaultSkin = map[string]string{
	IDNote:         "⬤",
	IDMine:         "⨯",
	IDHold:         "▣",
	IDHoldBody:     "│",
	IDBurst:        "◆",
	IDReceptor:     "-",
	IDReceptorHeld: "═",
	IDMissMarker:   "╳",
}

type DefaultTheme struct {
	skin map[string]string
}

// NewDefaultTheme returns the built in skin with overrides applied. Empty
// override values remove an element.
func NewDefaultTheme(overrides map[string]string) *DefaultTheme {
	skin := make(map[string]string, len(defaultSkin)+len(overrides))
	for k, v := range defaultSkin {
		skin[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(skin, k)
			continue
		}
		skin[k] = v
	}
	return &DefaultTheme{skin: skin}
}

func (t *DefaultTheme) Resolve(id string) (string, bool) {
	if nil == t.skin {
		s, ok := defaultSkin[id]
		return s, ok
	}
	s, ok := t.skin[id]
	return s, ok
}

func (t *DefaultTheme) symbol(id, fallback string) string {
	if s, ok := t.Resolve(id); ok {
		return s
	}
	return fallback
}

func (t *DefaultTheme) RenderNote(n game.Note) string {
	switch n.Kind {
	case game.KindMine:
		return colorize(noteColors[1], t.symbol(IDMine, "x"))
	case game.KindHold:
		return colorize(getNoteColor(n.Denom), t.symbol(IDHold, "#"))
	case game.KindBurst:
		return colorize(getNoteColor(n.Denom), t.symbol(IDBurst, "*"))
	}
	return colorize(getNoteColor(n.Denom), t.symbol(IDNote, "o"))
}

func (t *DefaultTheme) RenderHitField(column uint8, held bool) string {
	if held {
		return t.symbol(IDReceptorHeld, "=")
	}
	return t.symbol(IDReceptor, "-")
}

func (t *DefaultTheme) RenderJudgement(j game.Judgement) string {
	name := j.String()
	if s, ok := t.Resolve("judgement." + strings.ToLower(strings.ReplaceAll(name, " ", ""))); ok {
		name = s
	}
	return colorize(t.JudgementColor(j), name)
}

func (t *DefaultTheme) JudgementColor(j game.Judgement) Color {
	if int(j) < len(judgementColors) {
		return judgementColors[j]
	}
	return noteColors[-1]
}

func colorize(c Color, s string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, s)
}

var (
	judgementColors = [...]Color{
		{153, 204, 255}, // marvelous
		{236, 195, 0},   // perfect
		{0, 236, 128},   // great
		{0, 118, 236},   // good
		{236, 0, 106},   // bad
		{236, 30, 0},    // miss
		{106, 106, 106}, // ghost tap
	}
	noteColors = map[int]Color{
		1:  {236, 30, 0},    // 1/4 red
		2:  {0, 118, 236},   // 1/8 blue
		3:  {106, 0, 236},   // 1/12 purple
		4:  {236, 195, 0},   // 1/16 yellow
		5:  {106, 106, 106}, // 1/20 grey
		6:  {236, 0, 106},   // 1/24 pink
		8:  {236, 128, 0},   // 1/32 orange
		12: {173, 236, 236}, // 1/48 light blue
		16: {0, 236, 128},   // 1/64 green
		24: {106, 106, 106}, // 1/96 grey
		32: {106, 106, 106}, // 1/128 grey
		48: {110, 147, 89},  // 1/192 olive
		64: {106, 106, 106}, // 1/256 grey
		-1: {255, 255, 255}, // other white
	}
)

func getNoteColor(d int) Color {
	col, ok := noteColors[d]
	if !ok {
		return noteColors[-1]
	}
	return col
}
