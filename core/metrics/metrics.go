package metrics

import (
	"time"

	"github.com/kilianp07/homemind/core/model"
)

// DispatchRecord describes one navigation request and how far it got.
type DispatchRecord struct {
	DeviceID    string
	Input       string
	Stage       string
	Destination model.Destination
	Success     bool
	StatusCode  int
	Latency     time.Duration
	Time        time.Time
}

// MetricsSink records dispatch activity for observability purposes.
type MetricsSink interface {
	RecordDispatch(rec DispatchRecord) error
}

// MonitorRecord is the final state of a completion watch.
type MonitorRecord struct {
	HandleID    string
	DeviceID    string
	Destination model.Destination
	State       string
	LastStatus  model.Status
	Polls       int
	Elapsed     time.Duration
	Time        time.Time
}

// MonitorRecorder records completion watch outcomes.
type MonitorRecorder interface {
	RecordMonitor(rec MonitorRecord) error
}

// TelemetryRecord is a telemetry snapshot of a device.
type TelemetryRecord struct {
	DeviceID string
	State    model.DeviceState
}

// TelemetryRecorder records device telemetry snapshots.
type TelemetryRecorder interface {
	RecordTelemetry(rec TelemetryRecord) error
}

// ActuatorRecord describes one generic actuator command.
type ActuatorRecord struct {
	Name       string
	Entity     string
	Kind       string
	Value      string
	Success    bool
	StatusCode int
	Time       time.Time
}

// ActuatorRecorder records actuator commands.
type ActuatorRecorder interface {
	RecordActuator(rec ActuatorRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchRecord) error   { return nil }
func (NopSink) RecordMonitor(MonitorRecord) error     { return nil }
func (NopSink) RecordTelemetry(TelemetryRecord) error { return nil }
func (NopSink) RecordActuator(ActuatorRecord) error   { return nil }
