package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/homemind/core/model"
)

// MonitorEvent is published when a completion watch leaves the watching
// state.
type MonitorEvent struct {
	ID          string            `json:"id"`
	HandleID    string            `json:"handle_id"`
	DeviceID    string            `json:"device_id"`
	Destination model.Destination `json:"destination"`
	State       string            `json:"state"`
	LastStatus  model.Status      `json:"last_status"`
	Polls       int               `json:"polls"`
	Elapsed     time.Duration     `json:"elapsed"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewMonitorEvent stamps a new event with a fresh id.
func NewMonitorEvent(handleID, deviceID string, dest model.Destination, state string) MonitorEvent {
	return MonitorEvent{
		ID:          uuid.NewString(),
		HandleID:    handleID,
		DeviceID:    deviceID,
		Destination: dest,
		State:       state,
		Timestamp:   time.Now(),
	}
}
