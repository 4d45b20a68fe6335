package model

import (
	"strings"
	"time"
)

// Status is the closed vocabulary of robot activity states.
type Status int

const (
	StatusUnknown Status = iota
	StatusIdle
	StatusCleaning
	StatusReturning
	StatusDocked
	StatusCharging
	StatusError
)

// String returns the canonical token of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusCleaning:
		return "cleaning"
	case StatusReturning:
		return "returning"
	case StatusDocked:
		return "docked"
	case StatusCharging:
		return "charging"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its canonical token.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a canonical token or a raw integration value.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// statusAliases maps the raw values reported by the Home Assistant Roborock
// integration onto the closed vocabulary. Anything missing is StatusUnknown.
var statusAliases = map[string]Status{
	"idle":                 StatusIdle,
	"paused":               StatusIdle,
	"cleaning":             StatusCleaning,
	"segment_cleaning":     StatusCleaning,
	"zoned_cleaning":       StatusCleaning,
	"spot_cleaning":        StatusCleaning,
	"going_to_target":      StatusCleaning,
	"returning":            StatusReturning,
	"returning_home":       StatusReturning,
	"docking":              StatusReturning,
	"docked":               StatusDocked,
	"charging_complete":    StatusDocked,
	"charging":             StatusCharging,
	"error":                StatusError,
	"charging_problem":     StatusError,
	"charger_disconnected": StatusError,
}

// ParseStatus normalises a raw status string. Matching is case-insensitive.
func ParseStatus(raw string) Status {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

// DeviceState is a point-in-time telemetry snapshot of the robot.
type DeviceState struct {
	Battery   int       `json:"battery"` // percentage 0-100
	Status    Status    `json:"status"`
	RawStatus string    `json:"raw_status"`
	ReadAt    time.Time `json:"read_at"`
}
