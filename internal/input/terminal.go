package input

import (
	"context"
	"errors"
	"fmt"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/eiannone/keyboard"
)

// ErrQuit is returned when the player pressed escape.
var ErrQuit = errors.New("quit requested")

// Terminal captures keys from the controlling terminal until ctx is done or
// escape is pressed. Terminals report no key releases, so every key is sent
// as a press immediately followed by a release.
func Terminal(ctx context.Context, km Keymap, out chan<- engine.Action) error {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer keyboard.Close()
	return Translate(ctx, keys, km, out)
}

// Translate forwards key events as actions. out must have a single sender.
func Translate(ctx context.Context, keys <-chan keyboard.KeyEvent, km Keymap, out chan<- engine.Action) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			if nil != ev.Err {
				return fmt.Errorf("keyboard: %w", ev.Err)
			}
			if ev.Key == keyboard.KeyEsc || ev.Key == keyboard.KeyCtrlC {
				return ErrQuit
			}
			r := ev.Rune
			if ev.Key == keyboard.KeySpace {
				r = ' '
			}
			a, ok := km.Action(r, true)
			if !ok {
				continue
			}
			if err := send(ctx, out, a); nil != err {
				return err
			}
			if a.Kind == engine.Press {
				if err := send(ctx, out, engine.Action{Kind: engine.Release, Column: a.Column}); nil != err {
					return err
				}
			}
		}
	}
}

func send(ctx context.Context, out chan<- engine.Action, a engine.Action) error {
	select {
	case out <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
