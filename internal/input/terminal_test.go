package input

import (
	"context"
	"errors"
	"testing"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/eiannone/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	km, err := NewKeymap("dfjk")
	require.NoError(t, err)

	keys := make(chan keyboard.KeyEvent, 4)
	keys <- keyboard.KeyEvent{Rune: 'k'}
	keys <- keyboard.KeyEvent{Rune: 'x'}
	keys <- keyboard.KeyEvent{Rune: '['}
	close(keys)

	out := make(chan engine.Action, 8)
	require.NoError(t, Translate(context.Background(), keys, km, out))
	close(out)

	var got []engine.Action
	for a := range out {
		got = append(got, a)
	}
	assert.Equal(t, []engine.Action{
		{Kind: engine.Press, Column: 3},
		{Kind: engine.Release, Column: 3},
		{Kind: engine.Checkpoint},
	}, got)
}

func TestTranslateEscape(t *testing.T) {
	km, err := NewKeymap("dfjk")
	require.NoError(t, err)

	keys := make(chan keyboard.KeyEvent, 1)
	keys <- keyboard.KeyEvent{Key: keyboard.KeyEsc}
	err = Translate(context.Background(), keys, km, make(chan engine.Action, 1))
	assert.ErrorIs(t, err, ErrQuit)
}

func TestTranslateError(t *testing.T) {
	km, err := NewKeymap("dfjk")
	require.NoError(t, err)

	boom := errors.New("boom")
	keys := make(chan keyboard.KeyEvent, 1)
	keys <- keyboard.KeyEvent{Err: boom}
	err = Translate(context.Background(), keys, km, make(chan engine.Action, 1))
	assert.ErrorIs(t, err, boom)
}

func TestTranslateCancelled(t *testing.T) {
	km, err := NewKeymap("dfjk")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Translate(ctx, make(chan keyboard.KeyEvent), km, make(chan engine.Action))
	assert.ErrorIs(t, err, context.Canceled)
}
