// Package metrics defines the sinks that record robot dispatch activity.
// Sinks like PromSink and InfluxSink record navigation requests, monitor
// outcomes, telemetry snapshots and actuator commands and can be combined
// with NewMultiSink. The factory helpers return a MultiSink automatically
// when multiple sinks are configured.
package metrics
