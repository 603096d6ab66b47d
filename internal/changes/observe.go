package changes

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Loader runs the query behind an observation.
type Loader[T any] func(ctx context.Context) (T, error)

// Observe streams the result of load: once immediately and again after every
// publish to one of the tables. The subscription is taken before the first
// load so no write between the two is missed. The returned channel is closed
// when ctx is done or the broker is closed. With a nil broker the result is
// emitted once and the channel closes with ctx.
//
// A failed load is logged and skipped; the previous result stays current
// until the next successful reload.
func Observe[T any](ctx context.Context, b *Broker, load Loader[T], tables ...Table) <-chan T {
	out := make(chan T, 1)

	var updates <-chan struct{}
	var sub *Subscription
	if b != nil {
		sub = b.Subscribe(tables...)
		updates = sub.C()
	}

	go func() {
		defer close(out)
		if sub != nil {
			defer sub.Close()
		}

		emit := func() bool {
			result, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				logrus.WithError(err).WithField("tables", tables).Warn("observer reload failed")
				return true
			}
			select {
			case out <- result:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-updates:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}
