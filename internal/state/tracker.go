// Package state provides index-based change notification for long-poll
// status queries, adapted from the
// teacher's own condition-variable-based state tracker
// (pkg/state/tracker.go) so that a CLI can block until the engine's
// FileSystem state actually changes instead of polling it in a loop.
package state

import (
	"context"
	"errors"
	"sync"
)

// ErrTerminated indicates that tracking was terminated before a
// WaitForChange call saw any changes.
var ErrTerminated = errors.New("state: tracking terminated")

type pollResponse struct {
	index      uint64
	terminated bool
}

type pollRequest struct {
	previousIndex uint64
	responses     chan<- pollResponse
}

// Tracker tracks an opaque, monotonically increasing revision index and
// lets callers block until it changes. It is used to turn the engine's
// own change notifications (each init-state transition and each
// steady-state monitor tick) into something a status-polling client can
// wait on instead of spinning.
type Tracker struct {
	change       *sync.Cond
	index        uint64
	terminated   bool
	pollRequests map[*pollRequest]bool
	done         chan struct{}
}

// NewTracker creates a running tracker with index 1.
func NewTracker() *Tracker {
	t := &Tracker{
		change:       sync.NewCond(&sync.Mutex{}),
		index:        1,
		pollRequests: make(map[*pollRequest]bool),
		done:         make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer close(t.done)
	t.change.L.Lock()
	defer t.change.L.Unlock()

	for {
		if t.terminated {
			response := pollResponse{t.index, true}
			for r := range t.pollRequests {
				r.responses <- response
				delete(t.pollRequests, r)
			}
			return
		}

		for r := range t.pollRequests {
			if r.previousIndex != t.index {
				r.responses <- pollResponse{t.index, false}
				delete(t.pollRequests, r)
			}
		}

		t.change.Wait()
	}
}

// Terminate stops tracking and releases every pending waiter.
func (t *Tracker) Terminate() {
	t.change.L.Lock()
	t.terminated = true
	t.change.Signal()
	t.change.L.Unlock()
	<-t.done
}

// NotifyOfChange bumps the revision index and wakes any waiters.
func (t *Tracker) NotifyOfChange() {
	t.change.L.Lock()
	defer t.change.L.Unlock()
	t.index++
	if t.index == 0 {
		t.index = 1
	}
	t.change.Signal()
}

// WaitForChange blocks until the revision index differs from
// previousIndex, the tracker is terminated, or ctx is canceled. Passing a
// previousIndex of 0 returns the current index immediately, which lets a
// first-time caller learn the current index without waiting for a change.
func (t *Tracker) WaitForChange(ctx context.Context, previousIndex uint64) (uint64, error) {
	if previousIndex == 0 {
		t.change.L.Lock()
		defer t.change.L.Unlock()
		if t.terminated {
			return t.index, ErrTerminated
		}
		return t.index, nil
	}

	t.change.L.Lock()
	if t.terminated {
		defer t.change.L.Unlock()
		return t.index, ErrTerminated
	}

	responses := make(chan pollResponse, 1)
	request := &pollRequest{previousIndex, responses}
	t.pollRequests[request] = true
	t.change.Signal()
	t.change.L.Unlock()

	select {
	case <-ctx.Done():
		t.change.L.Lock()
		delete(t.pollRequests, request)
		t.change.L.Unlock()
		return previousIndex, ctx.Err()
	case response := <-responses:
		if response.terminated {
			return response.index, ErrTerminated
		}
		return response.index, nil
	}
}
