// Package timer implements the cancellable elapsed-time task that runs beside
// a turn and publishes wall-clock progress into a core.SharedScalar.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/moa/core"
)

// DefaultInterval is the polling cadence used when none is given.
const DefaultInterval = 100 * time.Millisecond

// TickFunc observes every published elapsed value (seconds). It runs on the
// timer goroutine.
type TickFunc func(elapsed float64)

// Timer is a running elapsed-time task. Stop cancels and joins it.
type Timer struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	start    time.Time
}

// Start launches the timer. It publishes immediately and then on every
// interval until ctx is cancelled or Stop is called. A non-positive interval
// selects DefaultInterval; onTick may be nil.
func Start(ctx context.Context, elapsed *core.SharedScalar, interval time.Duration, onTick TickFunc) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Timer{
		cancel: cancel,
		done:   make(chan struct{}),
		start:  time.Now(),
	}
	go t.run(ctx, elapsed, interval, onTick)
	return t
}

func (t *Timer) run(ctx context.Context, elapsed *core.SharedScalar, interval time.Duration, onTick TickFunc) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Checked before every write so no value is published once the
		// cancellation has been observed.
		if ctx.Err() != nil {
			return
		}
		v := time.Since(t.start).Seconds()
		elapsed.Set(v)
		if onTick != nil {
			onTick(v)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop signals cancellation and blocks until the timer goroutine has exited.
// It is safe to call more than once and from multiple goroutines.
func (t *Timer) Stop() {
	t.stopOnce.Do(t.cancel)
	<-t.done
}

// Done is closed once the timer goroutine has terminated.
func (t *Timer) Done() <-chan struct{} { return t.done }

// Elapsed returns the wall-clock time since the timer started.
func (t *Timer) Elapsed() time.Duration { return time.Since(t.start) }
