// Package input turns key events into engine actions.
package input

import (
	"fmt"

	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/game"
)

// DefaultKeys are the column keys for each supported key count.
var DefaultKeys = map[uint8]string{
	4: "dfjk",
	6: "sdfjkl",
	7: "sdf jkl",
	8: "asdfjkl;",
}

const (
	DefaultCheckpointKey = '['
	DefaultRetryKey      = ']'
)

// Keymap maps runes to columns and practice controls.
type Keymap struct {
	columns    map[rune]uint8
	Checkpoint rune
	Retry      rune
}

// NewKeymap assigns keys to columns left to right. The checkpoint and retry
// keys cannot be bound to a column.
func NewKeymap(keys string) (Keymap, error) {
	km := Keymap{
		columns:    map[rune]uint8{},
		Checkpoint: DefaultCheckpointKey,
		Retry:      DefaultRetryKey,
	}
	for i, r := range []rune(keys) {
		if i >= game.MaxColumns {
			return km, fmt.Errorf("too many keys in %q", keys)
		}
		if _, dup := km.columns[r]; dup {
			return km, fmt.Errorf("key %q bound twice in %q", r, keys)
		}
		if r == km.Checkpoint || r == km.Retry {
			return km, fmt.Errorf("key %q in %q is reserved for practice", r, keys)
		}
		km.columns[r] = uint8(i)
	}
	return km, nil
}

// KeymapFor returns the keymap for a key count, preferring bindings over
// DefaultKeys.
func KeymapFor(nKeys uint8, bindings map[uint8]string) (Keymap, error) {
	if keys, ok := bindings[nKeys]; ok && keys != "" {
		return NewKeymap(keys)
	}
	if keys, ok := DefaultKeys[nKeys]; ok {
		return NewKeymap(keys)
	}
	return Keymap{}, fmt.Errorf("no key bindings for %d keys", nKeys)
}

// Column returns the column bound to r.
func (k Keymap) Column(r rune) (uint8, bool) {
	c, ok := k.columns[r]
	return c, ok
}

// Columns is the number of bound columns.
func (k Keymap) Columns() int {
	return len(k.columns)
}

// Runes returns the bound keys in column order.
func (k Keymap) Runes() []rune {
	rs := make([]rune, len(k.columns))
	for r, c := range k.columns {
		rs[c] = r
	}
	return rs
}

// Action maps a key to what it does in a session.
func (k Keymap) Action(r rune, press bool) (engine.Action, bool) {
	if c, ok := k.columns[r]; ok {
		if press {
			return engine.Action{Kind: engine.Press, Column: c}, true
		}
		return engine.Action{Kind: engine.Release, Column: c}, true
	}
	if !press {
		return engine.Action{}, false
	}
	switch r {
	case k.Checkpoint:
		return engine.Action{Kind: engine.Checkpoint}, true
	case k.Retry:
		return engine.Action{Kind: engine.Retry}, true
	}
	return engine.Action{}, false
}
