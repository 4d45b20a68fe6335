// Package infra holds the adapters behind the core interfaces: the Home
// Assistant REST client, MQTT event publishing, Prometheus and InfluxDB
// sinks, Sentry reporting and zerolog logging. Nothing in core imports
// these packages except through interfaces.
package infra
