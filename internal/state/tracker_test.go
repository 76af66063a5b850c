package state

import (
	"context"
	"testing"
	"time"
)

func TestWaitForChangeZeroReturnsCurrentIndexImmediately(t *testing.T) {
	tr := NewTracker()
	defer tr.Terminate()

	index, err := tr.WaitForChange(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if index != 1 {
		t.Errorf("WaitForChange(0) = %d, expected the initial index 1", index)
	}
}

func TestWaitForChangeUnblocksOnNotify(t *testing.T) {
	tr := NewTracker()
	defer tr.Terminate()

	done := make(chan uint64, 1)
	go func() {
		index, err := tr.WaitForChange(context.Background(), 1)
		if err != nil {
			t.Error(err)
			return
		}
		done <- index
	}()

	time.Sleep(10 * time.Millisecond)
	tr.NotifyOfChange()

	select {
	case index := <-done:
		if index != 2 {
			t.Errorf("WaitForChange unblocked with index %d, expected 2", index)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForChange did not unblock after NotifyOfChange")
	}
}

func TestWaitForChangeRespectsContextCancellation(t *testing.T) {
	tr := NewTracker()
	defer tr.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := tr.WaitForChange(ctx, 1); err == nil {
		t.Error("expected WaitForChange to return an error when its context is canceled")
	}
}

func TestWaitForChangeAfterTerminate(t *testing.T) {
	tr := NewTracker()
	tr.Terminate()

	if _, err := tr.WaitForChange(context.Background(), 0); err != ErrTerminated {
		t.Errorf("WaitForChange(0) after Terminate = %v, expected ErrTerminated", err)
	}
	if _, err := tr.WaitForChange(context.Background(), 1); err != ErrTerminated {
		t.Errorf("WaitForChange(1) after Terminate = %v, expected ErrTerminated", err)
	}
}
