package engine

import (
	"context"
	"time"
)

// Publish sends v without blocking. When ch is full the oldest pending value
// is dropped to make room. It reports whether anything was dropped. ch must
// have a buffer and a single sender.
func Publish[T any](ch chan T, v T) bool {
	dropped := false
	for {
		select {
		case ch <- v:
			return dropped
		default:
		}
		select {
		case <-ch:
			dropped = true
		default:
		}
	}
}

// Run drives the session until it finishes or ctx is done. Actions are
// applied as they arrive; every tick the clock advances by the wall time
// since the previous tick and a snapshot is published to snapshots, which
// may be nil. Run returns nil when the chart finished.
func (e *Engine) Run(ctx context.Context, actions <-chan Action, snapshots chan Snapshot, tick time.Duration) error {
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	dropped := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-actions:
			if !ok {
				actions = nil
				continue
			}
			e.HandleInput(a)
		case now := <-ticker.C:
			e.Update(now.Sub(last).Seconds())
			last = now
			if snapshots != nil && Publish(snapshots, e.Snapshot()) {
				dropped++
				if dropped%100 == 1 {
					e.log.Debugf("renderer behind, %d snapshots dropped", dropped)
				}
			}
			if e.Finished() {
				e.log.Info("chart finished")
				return nil
			}
		}
	}
}
