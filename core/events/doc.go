// Package events defines the events emitted on the event bus.
//
// Available event types:
//   - DispatchEvent: outcome of one navigation request
//   - MonitorEvent: final state of a completion watch
package events
