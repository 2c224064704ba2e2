// Package scheduler queues callbacks to be run on a single consumer goroutine.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// queueSize bounds the callbacks waiting for the consumer.
const queueSize = 64

// Scheduler hands posted callbacks over to one consumer, in posting order for immediate posts.
type Scheduler struct {
	tasks chan func()

	done     chan struct{}
	stopOnce sync.Once

	timersMu sync.Mutex
	timers   map[*time.Timer]struct{}
}

// New returns a running scheduler.
func New() *Scheduler {
	return &Scheduler{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Post queues fn to be run by the consumer.
// It is dropped if the scheduler is stopped.
func (s *Scheduler) Post(fn func()) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.tasks <- fn:
	case <-s.done:
	}
}

// PostDeferred queues fn once delay has elapsed.
func (s *Scheduler) PostDeferred(delay time.Duration, fn func()) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.timersMu.Lock()
		delete(s.timers, t)
		s.timersMu.Unlock()

		s.Post(fn)
	})
	s.timers[t] = struct{}{}
}

// Tasks returns the queue of callbacks to run.
func (s *Scheduler) Tasks() <-chan func() {
	return s.tasks
}

// Done is closed once the scheduler is stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Run runs the queued callbacks on the calling goroutine until ctx is done or the scheduler is stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case fn := <-s.tasks:
			fn()
		}
	}
}

// Stop drops all pending callbacks. It can be called multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.timersMu.Lock()
		defer s.timersMu.Unlock()

		close(s.done)
		for t := range s.timers {
			t.Stop()
		}
		clear(s.timers)
	})
}
