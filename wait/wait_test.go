package wait

import (
	"context"
	"testing"
	"time"

	"github.com/termforge/conbuf"
)

func TestQueue_NotifyReleasesRegisteredWaiters(t *testing.T) {
	var q Queue

	const waiters = 3
	done := make(chan conbuf.WaitReason, waiters)
	for i := 0; i < waiters; i++ {
		w := q.Register()
		go func() {
			reason, err := w.Wait(context.Background())
			if err != nil {
				t.Errorf("Wait failed: %v", err)
			}
			done <- reason
		}()
	}

	q.NotifyWaiters()

	for i := 0; i < waiters; i++ {
		select {
		case reason := <-done:
			if reason != 0 {
				t.Errorf("reason = %v, want 0", reason)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter was not released")
		}
	}
}

func TestQueue_TerminateCarriesReason(t *testing.T) {
	var q Queue

	w := q.Register()
	done := make(chan conbuf.WaitReason, 1)
	go func() {
		reason, err := w.Wait(context.Background())
		if err != nil {
			t.Errorf("Wait failed: %v", err)
		}
		done <- reason
	}()

	q.TerminateWaiters(conbuf.WaitReasonCtrlC)

	select {
	case reason := <-done:
		if reason != conbuf.WaitReasonCtrlC {
			t.Errorf("reason = %v, want %v", reason, conbuf.WaitReasonCtrlC)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestQueue_RegistrationIsRoundScoped(t *testing.T) {
	var q Queue

	// A release before registration must not leak into a later wait:
	// the waiter belongs to the round it registered in.
	q.NotifyWaiters()
	w := q.Register()

	done := make(chan conbuf.WaitReason, 1)
	go func() {
		reason, err := w.Wait(context.Background())
		if err != nil {
			t.Errorf("Wait failed: %v", err)
		}
		done <- reason
	}()

	q.TerminateWaiters(conbuf.WaitReasonCtrlBreak)

	select {
	case reason := <-done:
		if reason != conbuf.WaitReasonCtrlBreak {
			t.Errorf("reason = %v, want %v", reason, conbuf.WaitReasonCtrlBreak)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestQueue_WriteAfterRegisterIsNotLost(t *testing.T) {
	var q Queue

	// The lost-wakeup guard: a notify between Register and Wait must
	// still release the waiter.
	w := q.Register()
	q.NotifyWaiters()

	reason, err := w.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if reason != 0 {
		t.Errorf("reason = %v, want 0", reason)
	}
}

func TestQueue_ContextCancellation(t *testing.T) {
	var q Queue

	ctx, cancel := context.WithCancel(context.Background())
	w := q.Register()

	done := make(chan error, 1)
	go func() {
		_, err := w.Wait(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Wait error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released by cancellation")
	}
}

func TestQueue_ImplementsWaitQueue(t *testing.T) {
	var _ conbuf.WaitQueue = &Queue{}
}

func TestEvent_SetReset(t *testing.T) {
	e := NewEvent()

	if e.IsSet() {
		t.Error("new event should not be set")
	}

	e.Set()
	if !e.IsSet() {
		t.Error("event should be set after Set")
	}
	select {
	case <-e.Done():
	default:
		t.Error("Done channel should be closed while set")
	}

	e.Set() // redundant
	if !e.IsSet() {
		t.Error("redundant Set should keep the event set")
	}

	e.Reset()
	if e.IsSet() {
		t.Error("event should not be set after Reset")
	}
	select {
	case <-e.Done():
		t.Error("Done channel should block after Reset")
	default:
	}

	e.Reset() // redundant
	e.Set()
	if !e.IsSet() {
		t.Error("event should be set again")
	}
}

func TestEvent_ZeroValue(t *testing.T) {
	var e Event

	if e.IsSet() {
		t.Error("zero value should not be set")
	}
	e.Set()
	if !e.IsSet() {
		t.Error("zero value should accept Set")
	}
	select {
	case <-e.Done():
	default:
		t.Error("Done channel should be closed while set")
	}
}

func TestEvent_ImplementsReadySignal(t *testing.T) {
	var _ conbuf.ReadySignal = &Event{}
}
