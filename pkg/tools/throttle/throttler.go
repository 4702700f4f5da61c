package throttle

import (
	"context"
	"time"
)

func New(interval time.Duration, capacity int) *Throttler {
	return &Throttler{
		todo:     make(chan func(), capacity),
		interval: interval,
	}
}

// Throttler runs queued actions one by one, at most one per interval.
type Throttler struct {
	todo     chan func()
	interval time.Duration
}

// Run executes actions until ctx is done. Actions left in the queue are dropped.
func (t *Throttler) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case action := <-t.todo:
			action()
		}

		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// Do queues action. It blocks while the queue is full and reports false
// if ctx is done first.
func (t *Throttler) Do(ctx context.Context, action func()) bool {
	select {
	case <-ctx.Done():
		return false
	case t.todo <- action:
		return true
	}
}
