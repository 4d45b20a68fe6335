// Package homeassistant defines the subset of the Home Assistant REST API the
// robot controller depends on.
package homeassistant

import (
	"context"
	"time"
)

// Entity is the state object returned by GET /api/states/{entity_id}.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// StateReader reads entity states.
type StateReader interface {
	GetState(ctx context.Context, entityID string) (Entity, error)
}

// ServiceCaller invokes POST /api/services/{domain}/{service} with data as
// JSON body. Implementations return a *StatusError for non-2xx replies.
type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, data map[string]any) error
}

// API combines both directions of the remote API.
type API interface {
	StateReader
	ServiceCaller
}
