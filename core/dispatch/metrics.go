package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandLatency *prometheus.HistogramVec
	commandsSent   *prometheus.CounterVec
	preempts       *prometheus.CounterVec
	gateBlocked    *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "robot_command_latency_seconds",
			Help:    "Latency of robot service calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robot_commands_total",
			Help: "Robot service calls by result",
		},
		[]string{"service", "result"},
	)
	pre := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robot_preempt_total",
			Help: "Stop requests issued before a new command",
		},
		[]string{"result"},
	)
	blocked := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robot_gate_blocked_total",
			Help: "Requests refused by the precondition gate",
		},
		[]string{"reason"},
	)
	return lat, sent, pre, blocked
}

func init() {
	commandLatency, commandsSent, preempts, gateBlocked = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(commandLatency, commandsSent, preempts, gateBlocked)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	commandLatency, commandsSent, preempts, gateBlocked = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// result labels
const (
	resultOK        = "ok"
	resultRejected  = "rejected"
	resultTransport = "transport_error"
)
