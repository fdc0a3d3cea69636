package render

import (
	"context"
	"time"

	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/theme"
)

type Renderer interface {
	Init() error
	Deinit() error
	AddDecoration(col, row uint16, content string, frames int)
	Render(s engine.Snapshot)
	RenderLoop(ctx context.Context, period time.Duration, snapshots <-chan engine.Snapshot) error
	Fill(row, column uint16, message string)
	FillColor(row, column uint16, color theme.Color, message string)
}
