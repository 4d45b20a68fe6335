// Package devicestatus keeps the latest known dispatch and monitor state per
// device for status queries.
package devicestatus

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/homemind/core/model"
)

// LastDispatch summarises the most recent navigation request.
type LastDispatch struct {
	Input       string            `json:"input"`
	Destination model.Destination `json:"destination"`
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ActiveWatch describes the monitor currently watching the device.
type ActiveWatch struct {
	HandleID    string            `json:"handle_id"`
	Destination model.Destination `json:"destination"`
	StartedAt   time.Time         `json:"started_at"`
}

// LastOutcome is the final state of the most recent watch.
type LastOutcome struct {
	HandleID    string            `json:"handle_id"`
	Destination model.Destination `json:"destination"`
	State       string            `json:"state"`
	LastStatus  model.Status      `json:"last_status"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Status captures the current known state of a device.
type Status struct {
	DeviceID      string        `json:"device_id"`
	CurrentStatus string        `json:"current_status"`
	LastDispatch  *LastDispatch `json:"last_dispatch,omitempty"`
	ActiveWatch   *ActiveWatch  `json:"active_watch,omitempty"`
	LastOutcome   *LastOutcome  `json:"last_outcome,omitempty"`
}

// Store records device status.
type Store interface {
	Get(id string) (Status, bool)
	List() []Status
	RecordDispatch(id string, d LastDispatch)
	RecordWatch(id string, w ActiveWatch)
	RecordOutcome(id string, o LastOutcome)
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Get(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	return st, ok
}

func (s *MemoryStore) RecordDispatch(id string, d LastDispatch) {
	s.mu.Lock()
	st := s.entry(id)
	st.LastDispatch = &d
	if d.Success {
		st.CurrentStatus = "dispatched"
		if st.ActiveWatch != nil {
			st.CurrentStatus = "watching"
		}
	}
	s.data[id] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordWatch(id string, w ActiveWatch) {
	s.mu.Lock()
	st := s.entry(id)
	st.ActiveWatch = &w
	st.CurrentStatus = "watching"
	s.data[id] = st
	s.mu.Unlock()
}

// RecordOutcome stores the outcome and clears the active watch when it
// belongs to the same handle. A late outcome of a superseded handle does not
// clear its successor.
func (s *MemoryStore) RecordOutcome(id string, o LastOutcome) {
	s.mu.Lock()
	st := s.entry(id)
	st.LastOutcome = &o
	if st.ActiveWatch != nil && st.ActiveWatch.HandleID == o.HandleID {
		st.ActiveWatch = nil
		st.CurrentStatus = o.State
	}
	s.data[id] = st
	s.mu.Unlock()
}

func (s *MemoryStore) List() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DeviceID < res[j].DeviceID })
	return res
}

func (s *MemoryStore) entry(id string) Status {
	st := s.data[id]
	if st.DeviceID == "" {
		st.DeviceID = id
	}
	return st
}
