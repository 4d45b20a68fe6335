// Package dispatch turns a free-text destination into a robot command: it
// resolves the target, checks the battery, interrupts the current task,
// sends the new command and hands completion tracking to the monitor.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/events"
	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/model"
	"github.com/kilianp07/homemind/core/monitor"
	"github.com/kilianp07/homemind/core/monitoring"
	"github.com/kilianp07/homemind/core/topology"
	"github.com/kilianp07/homemind/infra/logger"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// Watcher owns the completion monitor of each device.
type Watcher interface {
	Start(deviceID string, dest model.Destination) (*monitor.Handle, error)
	Cancel(deviceID string) bool
}

// Result is the outcome of one navigation request. Handle is set when a
// completion watch was started.
type Result struct {
	Outcome model.DispatchOutcome
	Stage   string
	Handle  *monitor.Handle
}

// Navigator runs the full navigation sequence for one device. Requests are
// serialised so two commands never interleave their stop and send calls.
type Navigator struct {
	deviceID   string
	resolver   *topology.Resolver
	gate       *Gate
	preempt    *Preemptor
	dispatcher *Dispatcher
	watcher    Watcher

	bus   eventbus.EventBus
	store devicestatus.Store
	sink  metrics.MetricsSink
	log   logger.Logger

	mu sync.Mutex
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithEventBus publishes a DispatchEvent per request.
func WithEventBus(b eventbus.EventBus) Option { return func(n *Navigator) { n.bus = b } }

// WithStatusStore records the last dispatch per device.
func WithStatusStore(s devicestatus.Store) Option { return func(n *Navigator) { n.store = s } }

// WithMetricsSink records every request.
func WithMetricsSink(s metrics.MetricsSink) Option { return func(n *Navigator) { n.sink = s } }

// WithLogger sets the logger used by the navigator and its stages.
func WithLogger(l logger.Logger) Option { return func(n *Navigator) { n.log = l } }

// NewNavigator wires the dispatch stages for the vacuum entity.
func NewNavigator(cfg Config, vacuumEntity string, resolver *topology.Resolver, api homeassistant.ServiceCaller, battery BatteryReader, watcher Watcher, opts ...Option) *Navigator {
	cfg.SetDefaults()
	n := &Navigator{
		deviceID: cfg.DeviceID,
		resolver: resolver,
		watcher:  watcher,
		sink:     metrics.NopSink{},
		log:      logger.NopLogger{},
	}
	for _, o := range opts {
		o(n)
	}
	n.gate = NewGate(battery, cfg.Threshold(), n.log)
	n.preempt = NewPreemptor(api, vacuumEntity, cfg.PreemptGrace(), n.log)
	n.dispatcher = NewDispatcher(api, vacuumEntity, n.log)
	return n
}

// DeviceID returns the device this navigator drives.
func (n *Navigator) DeviceID() string { return n.deviceID }

// NavigateToLocation is the tool entry point: it returns the caller-facing
// message for targetLocation.
func (n *Navigator) NavigateToLocation(ctx context.Context, targetLocation string) string {
	return n.Navigate(ctx, targetLocation).Outcome.Message
}

// Navigate resolves input and, when safe, interrupts the robot and sends it
// to the destination. The completion watch outlives ctx.
func (n *Navigator) Navigate(ctx context.Context, input string) Result {
	start := time.Now()
	n.mu.Lock()
	defer n.mu.Unlock()

	dest, err := n.resolver.Resolve(input)
	if err != nil {
		msg := n.resolver.Help()
		var re *topology.ResolutionError
		if errors.As(err, &re) {
			msg = re.Help()
		}
		n.log.Infof("navigate %q rejected: %v", input, err)
		res := Result{Stage: events.StageRejected, Outcome: model.DispatchOutcome{Message: msg, Err: err}}
		n.record(input, res, start)
		return res
	}

	if err := n.gate.CheckSafe(ctx); err != nil {
		msg := msgTelemetryMissing
		var be *BlockedError
		if errors.As(err, &be) {
			msg = be.Message()
			if be.Reason == ReasonTelemetryUnavailable {
				monitoring.Capture("gate", n.deviceID, err)
			}
		}
		res := Result{Stage: events.StageBlocked, Outcome: model.DispatchOutcome{Message: msg, Destination: dest, Err: err}}
		n.record(input, res, start)
		return res
	}

	if n.watcher.Cancel(n.deviceID) {
		n.log.Debugf("navigate: superseded active watch of %s", n.deviceID)
	}
	n.preempt.Interrupt(ctx)

	out := n.dispatcher.Dispatch(ctx, dest)
	if !out.Success {
		monitoring.Capture("dispatcher", n.deviceID, out.Err)
		res := Result{Stage: events.StageSendFailed, Outcome: out}
		n.record(input, res, start)
		return res
	}

	res := Result{Stage: events.StageDispatched, Outcome: out}
	h, err := n.watcher.Start(n.deviceID, dest)
	if err != nil {
		n.log.Warnf("navigate: monitor not started: %v", err)
	} else {
		res.Handle = h
	}
	n.record(input, res, start)
	return res
}

func (n *Navigator) record(input string, res Result, start time.Time) {
	out := res.Outcome
	now := time.Now()
	if err := n.sink.RecordDispatch(metrics.DispatchRecord{
		DeviceID:    n.deviceID,
		Input:       input,
		Stage:       res.Stage,
		Destination: out.Destination,
		Success:     out.Success,
		StatusCode:  out.StatusCode,
		Latency:     now.Sub(start),
		Time:        now,
	}); err != nil {
		n.log.Warnf("record dispatch metrics: %v", err)
	}
	if n.bus != nil {
		ev := events.NewDispatchEvent(n.deviceID, input, res.Stage)
		ev.Destination = out.Destination
		ev.Success = out.Success
		ev.Message = out.Message
		ev.StatusCode = out.StatusCode
		n.bus.Publish(ev)
	}
	if n.store != nil {
		n.store.RecordDispatch(n.deviceID, devicestatus.LastDispatch{
			Input:       input,
			Destination: out.Destination,
			Success:     out.Success,
			Message:     out.Message,
			Timestamp:   now,
		})
	}
}
