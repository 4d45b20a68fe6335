package homeassistant

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a reply cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEntityUnavailable is returned when an entity reports it is offline.
	ErrEntityUnavailable = errors.New("entity unavailable")
)

// StatusError is returned when the remote API answers with a non-2xx code.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err when it wraps a StatusError.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsOffline reports whether an entity state value means the device is not
// reachable.
func IsOffline(state string) bool {
	return state == "" || state == "unavailable" || state == "unknown"
}
