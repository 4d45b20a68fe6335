package metrics

import (
	"context"

	"github.com/kilianp07/homemind/core/events"
	coremetrics "github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/infra/logger"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records monitor
// outcomes on sinks that support them. It stops when the context is
// canceled or the bus is closed; the returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.MonitorRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(events.MonitorEvent)
				if !ok {
					continue
				}
				if err := rec.RecordMonitor(coremetrics.MonitorRecord{
					HandleID:    e.HandleID,
					DeviceID:    e.DeviceID,
					Destination: e.Destination,
					State:       e.State,
					LastStatus:  e.LastStatus,
					Polls:       e.Polls,
					Elapsed:     e.Elapsed,
					Time:        e.Timestamp,
				}); err != nil {
					log.Warnf("record monitor outcome: %v", err)
				}
			}
		}
	}()
	return done
}
