package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/homemind/core/metrics"
)

// PromSink records dispatch activity in Prometheus metrics.
type PromSink struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	monitor  *prometheus.CounterVec
	watch    *prometheus.HistogramVec
	battery  *prometheus.GaugeVec
	status   *prometheus.GaugeVec
	actuator *prometheus.CounterVec
}

var _ coremetrics.MetricsSink = (*PromSink)(nil)

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigation_requests_total",
			Help: "Navigation requests by final stage",
		}, []string{"device_id", "destination", "stage", "success"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "navigation_latency_seconds",
			Help:    "Time to answer a navigation request",
			Buckets: prometheus.DefBuckets,
		}, []string{"device_id", "stage"}),
		monitor: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_outcomes_total",
			Help: "Completion watches by final state",
		}, []string{"device_id", "destination", "state"}),
		watch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monitor_watch_seconds",
			Help:    "Duration of completion watches",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"device_id", "state"}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "robot_battery_percent",
			Help: "Last observed battery level",
		}, []string{"device_id"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "robot_status",
			Help: "Last observed status, one series per status set to 1",
		}, []string{"device_id", "status"}),
		actuator: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actuator_commands_total",
			Help: "Generic actuator commands",
		}, []string{"name", "kind", "success"}),
	}
	var err error
	if s.requests, err = register(reg, s.requests); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.monitor, err = register(reg, s.monitor); err != nil {
		return nil, err
	}
	if s.watch, err = register(reg, s.watch); err != nil {
		return nil, err
	}
	if s.battery, err = register(reg, s.battery); err != nil {
		return nil, err
	}
	if s.status, err = register(reg, s.status); err != nil {
		return nil, err
	}
	if s.actuator, err = register(reg, s.actuator); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch counts the request and observes its latency.
func (s *PromSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	dest := rec.Destination.ID
	if dest == "" {
		dest = "none"
	}
	s.requests.WithLabelValues(rec.DeviceID, dest, rec.Stage, strconv.FormatBool(rec.Success)).Inc()
	s.latency.WithLabelValues(rec.DeviceID, rec.Stage).Observe(rec.Latency.Seconds())
	return nil
}

// RecordMonitor counts the watch outcome and observes its duration.
func (s *PromSink) RecordMonitor(rec coremetrics.MonitorRecord) error {
	s.monitor.WithLabelValues(rec.DeviceID, rec.Destination.ID, rec.State).Inc()
	s.watch.WithLabelValues(rec.DeviceID, rec.State).Observe(rec.Elapsed.Seconds())
	return nil
}

// RecordTelemetry updates the battery and status gauges.
func (s *PromSink) RecordTelemetry(rec coremetrics.TelemetryRecord) error {
	s.battery.WithLabelValues(rec.DeviceID).Set(float64(rec.State.Battery))
	s.status.DeletePartialMatch(prometheus.Labels{"device_id": rec.DeviceID})
	s.status.WithLabelValues(rec.DeviceID, rec.State.Status.String()).Set(1)
	return nil
}

// RecordActuator counts the command.
func (s *PromSink) RecordActuator(rec coremetrics.ActuatorRecord) error {
	s.actuator.WithLabelValues(rec.Name, rec.Kind, strconv.FormatBool(rec.Success)).Inc()
	return nil
}
