// Package timer runs the practice countdown. It keeps no state; the last used
// duration lives in preferences.
package timer

import (
	"context"
	"time"
)

// Countdown emits the remaining time: d first, then after every tick, and
// finally 0 before closing. Cancelling ctx closes the channel early.
// A non-positive tick defaults to one second.
func Countdown(ctx context.Context, d, tick time.Duration) <-chan time.Duration {
	if tick <= 0 {
		tick = time.Second
	}
	out := make(chan time.Duration, 1)

	go func() {
		defer close(out)

		send := func(v time.Duration) bool {
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if d <= 0 {
			send(0)
			return
		}

		deadline := time.Now().Add(d)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		if !send(d) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				remaining := deadline.Sub(now)
				if remaining <= 0 {
					send(0)
					return
				}
				if !send(remaining.Round(tick)) {
					return
				}
			}
		}
	}()

	return out
}
