// Package theme decides how notes and judgements look in the terminal.
package theme

import "git.lost.host/meutraa/tempo/internal/game"

// Color is a 24 bit terminal colour.
type Color struct {
	R, G, B uint8
}

// Theme is consumed only by the renderer. Resolve looks up a skin element
// by id, reporting false when the skin has nothing for it.
type Theme interface {
	Resolve(id string) (string, bool)
	RenderNote(n game.Note) string
	RenderHitField(column uint8, held bool) string
	RenderJudgement(j game.Judgement) string
	JudgementColor(j game.Judgement) Color
}
