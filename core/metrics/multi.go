package metrics

import "errors"

// MultiSink fans records out to multiple sinks. Every sink is attempted;
// the returned error joins all failures.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the record to all sinks.
func (m *MultiSink) RecordDispatch(rec DispatchRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordMonitor forwards monitor outcomes to sinks that support them.
func (m *MultiSink) RecordMonitor(rec MonitorRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(MonitorRecorder); ok {
			if err := r.RecordMonitor(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTelemetry forwards snapshots to sinks that support them.
func (m *MultiSink) RecordTelemetry(rec TelemetryRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(TelemetryRecorder); ok {
			if err := r.RecordTelemetry(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordActuator forwards actuator commands to sinks that support them.
func (m *MultiSink) RecordActuator(rec ActuatorRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ActuatorRecorder); ok {
			if err := r.RecordActuator(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
