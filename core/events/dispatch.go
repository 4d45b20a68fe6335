package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/homemind/core/model"
)

// Stage values of a DispatchEvent.
const (
	StageRejected   = "rejected"
	StageBlocked    = "blocked"
	StageDispatched = "dispatched"
	StageSendFailed = "send_failed"
)

// DispatchEvent is published once per navigation request.
type DispatchEvent struct {
	ID          string            `json:"id"`
	DeviceID    string            `json:"device_id"`
	Input       string            `json:"input"`
	Stage       string            `json:"stage"`
	Destination model.Destination `json:"destination"`
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	StatusCode  int               `json:"status_code,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewDispatchEvent stamps a new event with a fresh id.
func NewDispatchEvent(deviceID, input, stage string) DispatchEvent {
	return DispatchEvent{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Input:     input,
		Stage:     stage,
		Timestamp: time.Now(),
	}
}
