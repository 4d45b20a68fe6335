package dispatch

import (
	"context"
	"fmt"

	"github.com/kilianp07/homemind/infra/logger"
)

// Reason explains why the gate refused a request.
type Reason int

const (
	ReasonTelemetryUnavailable Reason = iota
	ReasonBatteryLow
)

func (r Reason) String() string {
	switch r {
	case ReasonTelemetryUnavailable:
		return "telemetry_unavailable"
	case ReasonBatteryLow:
		return "battery_low"
	default:
		return "unknown"
	}
}

// BlockedError is returned when a request must not reach the device.
type BlockedError struct {
	Reason    Reason
	Battery   int
	Threshold int
	Err       error
}

func (e *BlockedError) Error() string {
	if e.Reason == ReasonBatteryLow {
		return fmt.Sprintf("blocked: battery %d%% below %d%%", e.Battery, e.Threshold)
	}
	return fmt.Sprintf("blocked: %s: %v", e.Reason, e.Err)
}

func (e *BlockedError) Unwrap() error { return e.Err }

// Message is the caller-facing explanation.
func (e *BlockedError) Message() string {
	if e.Reason == ReasonBatteryLow {
		return fmt.Sprintf(msgBatteryLow, e.Threshold)
	}
	return msgTelemetryMissing
}

// BatteryReader reads the live battery level.
type BatteryReader interface {
	Battery(ctx context.Context) (int, error)
}

// Gate refuses requests the robot cannot safely carry out.
type Gate struct {
	reader    BatteryReader
	threshold int
	log       logger.Logger
}

// NewGate returns a gate blocking below threshold percent.
func NewGate(r BatteryReader, threshold int, log logger.Logger) *Gate {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Gate{reader: r, threshold: threshold, log: log}
}

// CheckSafe reads the battery and returns nil or a *BlockedError. A level
// equal to the threshold passes.
func (g *Gate) CheckSafe(ctx context.Context) error {
	level, err := g.reader.Battery(ctx)
	if err != nil {
		g.log.Warnf("gate: battery unavailable: %v", err)
		gateBlocked.WithLabelValues(ReasonTelemetryUnavailable.String()).Inc()
		return &BlockedError{Reason: ReasonTelemetryUnavailable, Threshold: g.threshold, Err: err}
	}
	if level < g.threshold {
		g.log.Infof("gate: battery %d%% below %d%%", level, g.threshold)
		gateBlocked.WithLabelValues(ReasonBatteryLow.String()).Inc()
		return &BlockedError{Reason: ReasonBatteryLow, Battery: level, Threshold: g.threshold}
	}
	return nil
}
