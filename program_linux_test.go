package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"git.lost.host/meutraa/tempo/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyEvents writes evdev key events for the given codes to a file, each
// pressed and released.
func keyEvents(t *testing.T, codes ...uint16) string {
	t.Helper()
	type event struct {
		Time  syscall.Timeval
		Type  uint16
		Code  uint16
		Value int32
	}
	var buf bytes.Buffer
	for _, c := range codes {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, event{Type: 1, Code: c, Value: 1}))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, event{Type: 1, Code: c, Value: 0}))
	}
	path := filepath.Join(t.TempDir(), "events")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestProgram_Play(t *testing.T) {
	p := newProgram(t)
	p.Flags.Rate = 4
	p.Flags.Device = keyEvents(t, 32, 33)
	require.NoError(t, p.Init(context.Background()))
	require.NoError(t, p.Select(0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	r := &fakeRenderer{}
	out, err := p.Play(ctx, r)
	require.NoError(t, err)

	assert.Equal(t, 1, r.inits)
	assert.Equal(t, 1, r.deinits)
	require.NotEmpty(t, r.frames)
	assert.Equal(t, engine.Finished, r.frames[len(r.frames)-1].Phase)

	assert.Equal(t, 4, out.Replay.InputCount())
	assert.Equal(t, 4, out.Result.Stats.Miss)
	assert.Equal(t, 2, out.Result.Stats.GhostTap)
	assert.NotEmpty(t, out.ID)

	var summary bytes.Buffer
	out.Summary(&summary)
	assert.Contains(t, summary.String(), "Miss")

	// the next run sees this one as the best so far
	p.Flags.Device = keyEvents(t)
	out, err = p.Play(ctx, &fakeRenderer{})
	require.NoError(t, err)
	require.Len(t, out.Previous, 1)
	assert.Empty(t, out.ID, "empty replays are not stored")
}
