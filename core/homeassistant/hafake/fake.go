// Package hafake provides an in-memory Home Assistant used by tests.
package hafake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/homemind/core/homeassistant"
)

// Call is one recorded service invocation.
type Call struct {
	Domain  string
	Service string
	Data    map[string]any
	At      time.Time
}

// Fake implements homeassistant.API in memory and records every service
// call. It is safe for concurrent use.
type Fake struct {
	mu         sync.Mutex
	states     map[string]homeassistant.Entity
	stateErr   map[string]error
	serviceErr map[string]error
	calls      []Call
	reads      map[string]int
	onCall     func(Call)
}

var _ homeassistant.API = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		states:     map[string]homeassistant.Entity{},
		stateErr:   map[string]error{},
		serviceErr: map[string]error{},
		reads:      map[string]int{},
	}
}

// SetState stores the state returned for entityID.
func (f *Fake) SetState(entityID, state string) {
	f.mu.Lock()
	f.states[entityID] = homeassistant.Entity{EntityID: entityID, State: state, LastUpdated: time.Now()}
	delete(f.stateErr, entityID)
	f.mu.Unlock()
}

// FailState makes reads of entityID return err.
func (f *Fake) FailState(entityID string, err error) {
	f.mu.Lock()
	f.stateErr[entityID] = err
	f.mu.Unlock()
}

// FailService makes domain/service return err. Use a *homeassistant.StatusError
// to simulate a non-2xx reply.
func (f *Fake) FailService(domain, service string, err error) {
	f.mu.Lock()
	f.serviceErr[domain+"/"+service] = err
	f.mu.Unlock()
}

// OnCall registers a hook run after each accepted service call, outside the
// fake's lock. It can be used to move device state.
func (f *Fake) OnCall(fn func(Call)) {
	f.mu.Lock()
	f.onCall = fn
	f.mu.Unlock()
}

// GetState implements homeassistant.StateReader.
func (f *Fake) GetState(ctx context.Context, entityID string) (homeassistant.Entity, error) {
	if err := ctx.Err(); err != nil {
		return homeassistant.Entity{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[entityID]++
	if err, ok := f.stateErr[entityID]; ok {
		return homeassistant.Entity{}, err
	}
	ent, ok := f.states[entityID]
	if !ok {
		return homeassistant.Entity{}, &homeassistant.StatusError{Op: "get state " + entityID, StatusCode: 404}
	}
	return ent, nil
}

// CallService implements homeassistant.ServiceCaller. Failed calls are
// recorded too.
func (f *Fake) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := Call{Domain: domain, Service: service, Data: data, At: time.Now()}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.serviceErr[domain+"/"+service]
	hook := f.onCall
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s/%s: %w", domain, service, err)
	}
	if hook != nil {
		hook(c)
	}
	return nil
}

// Calls returns a copy of all recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one service.
func (f *Fake) CallsTo(domain, service string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Domain == domain && c.Service == service {
			out = append(out, c)
		}
	}
	return out
}

// Reads returns how many times entityID was read.
func (f *Fake) Reads(entityID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[entityID]
}
