// Package monitor watches the robot after a command until it reaches a
// terminal status for the destination, times out, or is superseded.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/events"
	"github.com/kilianp07/homemind/core/model"
	"github.com/kilianp07/homemind/core/monitoring"
	"github.com/kilianp07/homemind/infra/logger"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("monitor registry closed")

// StatusReader polls the robot status.
type StatusReader interface {
	Status(ctx context.Context) (model.Status, string, error)
}

// Registry owns at most one watching handle per device.
type Registry struct {
	base    context.Context
	reader  StatusReader
	every   time.Duration
	timeout time.Duration
	bus     eventbus.EventBus
	store   devicestatus.Store
	log     logger.Logger

	// startMu serialises Start and Cancel so a slot is never filled while
	// its previous handle is still shutting down.
	startMu sync.Mutex
	mu      sync.Mutex
	slots   map[string]*Handle
	closed  bool
	wg      sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithEventBus publishes a MonitorEvent for every finished watch.
func WithEventBus(b eventbus.EventBus) Option { return func(r *Registry) { r.bus = b } }

// WithStore records active watches and outcomes.
func WithStore(s devicestatus.Store) Option { return func(r *Registry) { r.store = s } }

// WithIntervals overrides the configured poll interval and watch timeout.
func WithIntervals(every, timeout time.Duration) Option {
	return func(r *Registry) {
		if every > 0 {
			r.every = every
		}
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(r *Registry) { r.log = l } }

// NewRegistry creates a registry whose watches live until ctx is done or
// Close is called. Request contexts must not be passed here.
func NewRegistry(ctx context.Context, reader StatusReader, cfg Config, opts ...Option) *Registry {
	cfg.SetDefaults()
	r := &Registry{
		base:    ctx,
		reader:  reader,
		every:   cfg.PollInterval(),
		timeout: cfg.Timeout(),
		log:     logger.NopLogger{},
		slots:   map[string]*Handle{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start cancels any watch of deviceID, waits for it to stop, then begins
// watching for dest. The first poll happens one interval after Start.
func (r *Registry) Start(deviceID string, dest model.Destination) (*Handle, error) {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.stop(deviceID)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(r.base)
	h := &Handle{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		Destination: dest,
		StartedAt:   time.Now(),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	r.slots[deviceID] = h
	r.wg.Add(1)
	r.mu.Unlock()

	if r.store != nil {
		r.store.RecordWatch(deviceID, devicestatus.ActiveWatch{HandleID: h.ID, Destination: dest, StartedAt: h.StartedAt})
	}
	r.log.Debugw("monitor started", map[string]any{"device_id": deviceID, "handle_id": h.ID, "destination": dest.ID})
	go r.watch(ctx, h)
	return h, nil
}

// Cancel stops the watch of deviceID and waits for it. It reports whether a
// watch was active.
func (r *Registry) Cancel(deviceID string) bool {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	return r.stop(deviceID)
}

// Active returns the watching handle of deviceID, if any.
func (r *Registry) Active(deviceID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.slots[deviceID]
	return h, ok
}

// Close cancels every watch, waits for them and rejects further Starts.
func (r *Registry) Close() {
	r.startMu.Lock()
	r.mu.Lock()
	r.closed = true
	handles := make([]*Handle, 0, len(r.slots))
	for _, h := range r.slots {
		handles = append(handles, h)
	}
	r.mu.Unlock()
	for _, h := range handles {
		h.finish(StateCancelled)
		h.cancel()
	}
	r.startMu.Unlock()
	r.wg.Wait()
}

// stop must be called with startMu held.
func (r *Registry) stop(deviceID string) bool {
	r.mu.Lock()
	old := r.slots[deviceID]
	r.mu.Unlock()
	if old == nil {
		return false
	}
	old.finish(StateCancelled)
	old.cancel()
	<-old.done
	return true
}

func (r *Registry) watch(ctx context.Context, h *Handle) {
	defer r.wg.Done()
	defer close(h.done)
	defer h.cancel()

	r.pollRecovered(ctx, h)

	r.mu.Lock()
	if r.slots[h.DeviceID] == h {
		delete(r.slots, h.DeviceID)
	}
	r.mu.Unlock()
	r.report(h)
}

// pollRecovered runs poll and turns a panic into StateFailed so the slot is
// still released and the outcome reported.
func (r *Registry) pollRecovered(ctx context.Context, h *Handle) {
	defer func() {
		if v := recover(); v != nil {
			monitoring.CapturePanic(v)
			r.log.Errorf("monitor %s: poll panicked: %v", h.ID, v)
			h.finish(StateFailed)
		}
	}()
	r.poll(ctx, h)
}

func (r *Registry) poll(ctx context.Context, h *Handle) {
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()
	timeout := time.NewTimer(r.timeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			h.finish(StateCancelled)
			return
		case <-timeout.C:
			h.finish(StateTimedOut)
			return
		case <-ticker.C:
			st, raw, err := r.reader.Status(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.log.Warnf("monitor %s: poll failed: %v", h.ID, err)
				}
				continue
			}
			h.observe(st)
			r.log.Debugw("monitor poll", map[string]any{"handle_id": h.ID, "status": st.String(), "raw_status": raw})
			if h.Destination.IsTerminal(st) {
				h.finish(StateCompleted)
				return
			}
		}
	}
}

func (r *Registry) report(h *Handle) {
	state := h.State()
	last, polls := h.LastStatus()
	elapsed := h.Elapsed()
	r.log.Infow("monitor finished", map[string]any{
		"device_id":   h.DeviceID,
		"handle_id":   h.ID,
		"destination": h.Destination.ID,
		"state":       state.String(),
		"last_status": last.String(),
		"polls":       polls,
		"elapsed_ms":  elapsed.Milliseconds(),
	})
	if r.bus != nil {
		ev := events.NewMonitorEvent(h.ID, h.DeviceID, h.Destination, state.String())
		ev.LastStatus = last
		ev.Polls = polls
		ev.Elapsed = elapsed
		r.bus.Publish(ev)
	}
	if r.store != nil {
		r.store.RecordOutcome(h.DeviceID, devicestatus.LastOutcome{
			HandleID:    h.ID,
			Destination: h.Destination,
			State:       state.String(),
			LastStatus:  last,
			Timestamp:   time.Now(),
		})
	}
}
