package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/model"
	"github.com/kilianp07/homemind/infra/logger"
)

// Dispatcher translates a destination into exactly one robot command.
type Dispatcher struct {
	api    homeassistant.ServiceCaller
	entity string
	log    logger.Logger
}

// NewDispatcher returns a dispatcher for the vacuum entity.
func NewDispatcher(api homeassistant.ServiceCaller, entity string, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Dispatcher{api: api, entity: entity, log: log}
}

// Command returns the service and payload used for dest.
func (d *Dispatcher) Command(dest model.Destination) (service string, data map[string]any) {
	if dest.IsDock() {
		return "return_to_base", map[string]any{"entity_id": d.entity}
	}
	return "send_command", map[string]any{
		"entity_id": d.entity,
		"command":   "app_segment_clean",
		"params":    []int{dest.RoomID},
	}
}

// Dispatch sends the command for dest and converts every failure, including
// a panic in the transport, into an outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, dest model.Destination) (out model.DispatchOutcome) {
	out.Destination = dest
	service, data := d.Command(dest)
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("dispatch %s panicked: %v", service, r)
			out.Success = false
			out.StatusCode = 0
			out.Message = msgTransportFailure
			out.Err = fmt.Errorf("vacuum/%s: panic: %v", service, r)
		}
	}()

	start := time.Now()
	err := d.api.CallService(ctx, "vacuum", service, data)
	commandLatency.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		code, ok := homeassistant.StatusCode(err)
		result := resultTransport
		if ok {
			result = resultRejected
			out.StatusCode = code
		}
		commandsSent.WithLabelValues(service, result).Inc()
		d.log.Errorf("dispatch %s to %s failed: %v", service, dest.Name, err)
		out.Message = FailureMessage(code, ok)
		out.Err = err
		return out
	}
	commandsSent.WithLabelValues(service, resultOK).Inc()
	d.log.Infof("dispatched %s to %s", service, dest.Name)
	out.Success = true
	out.Message = acceptedMessage(dest.Name, dest.IsDock())
	return out
}
