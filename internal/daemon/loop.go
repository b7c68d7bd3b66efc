package daemon

import (
	"context"
	"sync"
)

// Loop runs posted functions one at a time on the goroutine that called Run.
// Everything that touches X resources (the registry and the queue) happens
// inside posted functions; timers, D-Bus handlers and the event reader only
// post.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	stopped bool

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
}

// NewLoop creates a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

// Post schedules fn. It never blocks, so it is safe to call from inside a
// posted function. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it. It returns false without
// running fn when the loop has stopped. It must not be called from a posted
// function.
func (l *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}

	select {
	case <-done:
		return true
	case <-l.quit:
		// Run may have drained fn before quitting.
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Run executes posted functions until ctx is cancelled or Stop is called.
// Functions still pending at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

// Stop ends Run after the function currently executing returns. Later
// posts are refused.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.pending = nil
	l.mu.Unlock()
	l.quitOnce.Do(func() { close(l.quit) })
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			select {
			case <-l.quit:
				return
			default:
			}
			fn()
		}
	}
}
