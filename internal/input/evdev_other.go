//go:build !linux

package input

import (
	"context"
	"errors"

	"git.lost.host/meutraa/tempo/internal/engine"
)

// Evdev is only available on linux.
func Evdev(ctx context.Context, device string, km Keymap, out chan<- engine.Action) error {
	return errors.New("evdev input is only supported on linux")
}
