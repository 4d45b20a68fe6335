package dispatch

import (
	"context"
	"time"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/infra/logger"
)

// Preemptor stops whatever the robot is doing before a new command.
type Preemptor struct {
	api    homeassistant.ServiceCaller
	entity string
	grace  time.Duration
	sleep  func(time.Duration)
	log    logger.Logger
}

// NewPreemptor returns a preemptor for the vacuum entity.
func NewPreemptor(api homeassistant.ServiceCaller, entity string, grace time.Duration, log logger.Logger) *Preemptor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Preemptor{api: api, entity: entity, grace: grace, sleep: time.Sleep, log: log}
}

// Interrupt sends a stop. Failures are logged and never block the caller's
// next command. After an accepted stop it pauses for the grace period,
// regardless of ctx.
func (p *Preemptor) Interrupt(ctx context.Context) {
	start := time.Now()
	err := p.api.CallService(ctx, "vacuum", "stop", map[string]any{"entity_id": p.entity})
	commandLatency.WithLabelValues("stop").Observe(time.Since(start).Seconds())
	if err != nil {
		result := resultTransport
		if _, ok := homeassistant.StatusCode(err); ok {
			result = resultRejected
		}
		preempts.WithLabelValues(result).Inc()
		p.log.Warnf("preempt: stop failed, continuing: %v", err)
		return
	}
	preempts.WithLabelValues(resultOK).Inc()
	p.log.Debugf("preempt: stop accepted, waiting %s", p.grace)
	if p.grace > 0 {
		p.sleep(p.grace)
	}
}
