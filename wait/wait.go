// Package wait provides the blocking collaborators of the buffer core:
// a broadcast queue for readers waiting on input and a manual-reset
// readiness event.
//
// The core itself never blocks. It only calls NotifyWaiters after each
// write and TerminateWaiters on cancellation; consumers that found no
// data register here and block outside the console lock.
package wait

import (
	"context"
	"sync"

	"github.com/termforge/conbuf"
)

// round is one broadcast generation. Its channel is closed exactly once,
// after the release reason has been stored.
type round struct {
	ch     chan struct{}
	reason conbuf.WaitReason
}

// Queue releases waiting readers in broadcast rounds. Every notify or
// terminate call releases all readers registered before it; there is no
// per-waiter cancellation, matching the host's wait semantics.
//
// The zero value is ready to use.
type Queue struct {
	mu  sync.Mutex
	cur *round
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Waiter is a registration in one broadcast round.
type Waiter struct {
	r *round
}

// Register enters the current round. Call it while still holding the
// console exclusion, before the data re-check that decides to block;
// a write that lands afterwards is then guaranteed to release the
// returned Waiter.
func (q *Queue) Register() *Waiter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &Waiter{r: q.current()}
}

// NotifyWaiters releases every registered waiter with no reason.
// Readers re-check for data and either consume it or register again.
func (q *Queue) NotifyWaiters() {
	q.release(0)
}

// TerminateWaiters releases every registered waiter with the given
// reason. Released readers must give up instead of registering again.
func (q *Queue) TerminateWaiters(reason conbuf.WaitReason) {
	q.release(reason)
}

// Wait registers in the current round and blocks. Prefer Register
// followed by Waiter.Wait when a data check sits between the two.
func (q *Queue) Wait(ctx context.Context) (conbuf.WaitReason, error) {
	return q.Register().Wait(ctx)
}

// Wait blocks until the waiter's round is released or ctx is done. It
// returns the release reason, zero for a plain notify.
func (w *Waiter) Wait(ctx context.Context) (conbuf.WaitReason, error) {
	select {
	case <-w.r.ch:
		return w.r.reason, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (q *Queue) current() *round {
	if q.cur == nil {
		q.cur = &round{ch: make(chan struct{})}
	}
	return q.cur
}

func (q *Queue) release(reason conbuf.WaitReason) {
	q.mu.Lock()
	cur := q.current()
	cur.reason = reason
	q.cur = &round{ch: make(chan struct{})}
	q.mu.Unlock()

	close(cur.ch)
}

// Event is a manual-reset readiness signal, the analogue of the host's
// input event handle. It stays signaled from Set until Reset.
type Event struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

// NewEvent returns an unsignaled event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Set signals the event. Redundant calls are no-ops.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		e.set = true
		if e.ch == nil {
			e.ch = make(chan struct{})
		}
		close(e.ch)
	}
}

// Reset unsignals the event. Redundant calls are no-ops.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		e.set = false
		e.ch = make(chan struct{})
	}
}

// IsSet reports whether the event is signaled.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Done returns a channel that is closed while the event is signaled.
// After a Reset the previously returned channel stays closed; callers
// select on a fresh Done call per wait.
func (e *Event) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	return e.ch
}
