package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Scheduler runs deferred engine work. All dice animation delays and the
// startup delay go through it, so it is the only suspension point of the
// engine.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Immediate ignores delays and runs work synchronously on the caller's
// goroutine. Work scheduled while another task is running is queued and run
// after it, so chains of state transitions never recurse.
type Immediate struct {
	queue   []func()
	running bool
}

// After runs fn now, or queues it if a task is already running.
func (s *Immediate) After(_ time.Duration, fn func()) {
	s.queue = append(s.queue, fn)
	if s.running {
		return
	}
	s.running = true
	defer func() {
		// A panicking task drops the rest of the queue.
		if s.running {
			s.queue = nil
			s.running = false
		}
	}()
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		next()
	}
	s.running = false
}

// ErrLoopStopped is returned by Loop.Do once the loop has exited.
var ErrLoopStopped = errors.New("engine loop stopped")

// Loop serializes engine work on a single goroutine. Delayed tasks are
// posted back onto the loop by timers; callers on other goroutines use Do.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewLoop creates a loop. It does nothing until Run is called.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		for {
			task := l.pop()
			if task == nil {
				break
			}
			task()
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// After posts fn to the loop once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	if d <= 0 {
		l.post(fn)
		return
	}
	time.AfterFunc(d, func() { l.post(fn) })
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task
}
