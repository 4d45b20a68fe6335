package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/homemind/core/model"
)

// State is the lifecycle state of a watch.
type State int32

const (
	StateWatching State = iota
	StateCompleted
	StateTimedOut
	StateCancelled
	// StateFailed ends a watch whose poll loop panicked.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWatching:
		return "watching"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Handle is one completion watch. Its state moves out of StateWatching
// exactly once.
type Handle struct {
	ID          string
	DeviceID    string
	Destination model.Destination
	StartedAt   time.Time

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	lastStatus model.Status
	polls      int
	endedAt    time.Time
}

// State returns the current state.
func (h *Handle) State() State { return State(h.state.Load()) }

// Done is closed once the watch has stopped polling and reported.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the watch ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) (State, error) {
	select {
	case <-h.done:
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

// LastStatus returns the last polled status and the number of polls made.
func (h *Handle) LastStatus() (model.Status, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastStatus, h.polls
}

// Elapsed is the watch duration so far, or its total once ended.
func (h *Handle) Elapsed() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.endedAt.IsZero() {
		return h.endedAt.Sub(h.StartedAt)
	}
	return time.Since(h.StartedAt)
}

func (h *Handle) observe(s model.Status) {
	h.mu.Lock()
	h.lastStatus = s
	h.polls++
	h.mu.Unlock()
}

// finish moves the handle out of StateWatching. It reports false when the
// handle already ended.
func (h *Handle) finish(s State) bool {
	if !h.state.CompareAndSwap(int32(StateWatching), int32(s)) {
		return false
	}
	h.mu.Lock()
	h.endedAt = time.Now()
	h.mu.Unlock()
	return true
}
