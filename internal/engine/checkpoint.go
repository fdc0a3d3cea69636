package engine

import (
	"time"

	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/replay"
)

const (
	DefaultCooldown    = 15 * time.Second
	DefaultRetryOffset = time.Second
)

// CheckpointState is everything needed to put a practice session back where
// it was. Hits is a full bitmap because notes can be hit out of order
// relative to Head.
type CheckpointState struct {
	TimestampUs int64
	Head        int
	Tally       game.Tally
	Hits        []bool
	// Inputs is how many replay inputs had been recorded.
	Inputs int
}

// CheckpointManager keeps the latest checkpoint and enforces the cooldown
// between them.
type CheckpointManager struct {
	cooldownUs    int64
	retryOffsetUs int64
	latest        *CheckpointState
}

// NewCheckpointManager clamps the cooldown to the replay checkpoint interval
// so every accepted checkpoint can also be stored in the replay. Zero values
// take the defaults.
func NewCheckpointManager(cooldown, retryOffset time.Duration) *CheckpointManager {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if retryOffset <= 0 {
		retryOffset = DefaultRetryOffset
	}
	m := &CheckpointManager{
		cooldownUs:    cooldown.Microseconds(),
		retryOffsetUs: retryOffset.Microseconds(),
	}
	if m.cooldownUs < replay.CheckpointMinIntervalUs {
		m.cooldownUs = replay.CheckpointMinIntervalUs
	}
	return m
}

// Remaining is how long until a checkpoint at nowUs would be accepted.
func (m *CheckpointManager) Remaining(nowUs int64) time.Duration {
	if m.latest == nil {
		return 0
	}
	left := m.cooldownUs - (nowUs - m.latest.TimestampUs)
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * time.Microsecond
}

// Ready reports whether the cooldown has passed.
func (m *CheckpointManager) Ready(nowUs int64) bool {
	return m.Remaining(nowUs) == 0
}

func (m *CheckpointManager) store(s CheckpointState) {
	m.latest = &s
}

// Latest returns the most recent checkpoint.
func (m *CheckpointManager) Latest() (CheckpointState, bool) {
	if m.latest == nil {
		return CheckpointState{}, false
	}
	return *m.latest, true
}

// RetryTimeUs is where play resumes for a checkpoint, never before zero.
func (m *CheckpointManager) RetryTimeUs(s CheckpointState) int64 {
	t := s.TimestampUs - m.retryOffsetUs
	if t < 0 {
		return 0
	}
	return t
}

func (m *CheckpointManager) Reset() {
	m.latest = nil
}
