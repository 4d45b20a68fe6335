package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/events"
	"github.com/kilianp07/homemind/core/model"
	coremon "github.com/kilianp07/homemind/core/monitoring"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// scriptReader returns the scripted statuses in order and repeats the last.
type scriptReader struct {
	mu     sync.Mutex
	script []model.Status
	errs   map[int]error
	calls  int
}

func (s *scriptReader) Status(context.Context) (model.Status, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if err, ok := s.errs[i]; ok {
		return model.StatusUnknown, "", err
	}
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i], s.script[i].String(), nil
}

func (s *scriptReader) set(st ...model.Status) {
	s.mu.Lock()
	s.script = st
	s.calls = 0
	s.mu.Unlock()
}

func (s *scriptReader) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	bedroom = model.ZoneDestination(model.Zone{ID: "bedroom", Name: "卧室", RoomID: 17})
	dock    = model.DockDestination("dock", "充电座")
)

func newTestRegistry(t *testing.T, r StatusReader, every, timeout time.Duration, opts ...Option) *Registry {
	t.Helper()
	opts = append(opts, WithIntervals(every, timeout))
	reg := NewRegistry(context.Background(), r, Config{}, opts...)
	t.Cleanup(reg.Close)
	return reg
}

func waitState(t *testing.T, h *Handle) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := h.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestZoneCompletesOnIdle(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusCleaning, model.StatusCleaning, model.StatusIdle}}
	bus := eventbus.New()
	sub := bus.Subscribe()
	store := devicestatus.NewMemoryStore()
	reg := newTestRegistry(t, reader, 5*time.Millisecond, time.Second, WithEventBus(bus), WithStore(store))

	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, waitState(t, h))

	last, polls := h.LastStatus()
	assert.Equal(t, model.StatusIdle, last)
	assert.Equal(t, 3, polls)

	ev := (<-sub).(events.MonitorEvent)
	assert.Equal(t, h.ID, ev.HandleID)
	assert.Equal(t, "completed", ev.State)

	st, ok := store.Get("robot")
	require.True(t, ok)
	assert.Nil(t, st.ActiveWatch)
	assert.Equal(t, "completed", st.LastOutcome.State)

	_, active := reg.Active("robot")
	assert.False(t, active)
}

func TestDockIgnoresIdle(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusIdle, model.StatusReturning, model.StatusCharging}}
	reg := newTestRegistry(t, reader, 5*time.Millisecond, time.Second)

	h, err := reg.Start("robot", dock)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, waitState(t, h))
	last, polls := h.LastStatus()
	assert.Equal(t, model.StatusCharging, last)
	assert.Equal(t, 3, polls)
}

func TestFirstPollAfterOneInterval(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusIdle}}
	reg := newTestRegistry(t, reader, 100*time.Millisecond, time.Second)

	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, reader.count())
	assert.Equal(t, StateWatching, h.State())
	assert.Equal(t, StateCompleted, waitState(t, h))
}

func TestSupersedeCancelsPrior(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusCleaning}}
	bus := eventbus.New()
	sub := bus.Subscribe()
	reg := newTestRegistry(t, reader, 5*time.Millisecond, time.Second, WithEventBus(bus))

	h1, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	h2, err := reg.Start("robot", dock)
	require.NoError(t, err)

	select {
	case <-h1.Done():
	default:
		t.Fatal("prior handle still running after Start returned")
	}
	assert.Equal(t, StateCancelled, h1.State())
	active, ok := reg.Active("robot")
	require.True(t, ok)
	assert.Same(t, h2, active)

	reader.set(model.StatusDocked)
	assert.Equal(t, StateCompleted, waitState(t, h2))

	completed := 0
	for i := 0; i < 2; i++ {
		ev := (<-sub).(events.MonitorEvent)
		if ev.State == "completed" {
			completed++
			assert.Equal(t, h2.ID, ev.HandleID)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestTimeoutNotBeforeDuration(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusCleaning}}
	reg := newTestRegistry(t, reader, 5*time.Millisecond, 80*time.Millisecond)

	start := time.Now()
	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, waitState(t, h))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.GreaterOrEqual(t, h.Elapsed(), 80*time.Millisecond)
}

func TestPollErrorsKeepWatching(t *testing.T) {
	reader := &scriptReader{
		script: []model.Status{model.StatusCleaning, model.StatusCleaning, model.StatusDocked},
		errs:   map[int]error{0: errors.New("dial tcp: refused"), 1: errors.New("timeout")},
	}
	reg := newTestRegistry(t, reader, 5*time.Millisecond, time.Second)

	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, waitState(t, h))
	_, polls := h.LastStatus()
	assert.Equal(t, 1, polls)
}

func TestCancelAndClose(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusCleaning}}
	reg := NewRegistry(context.Background(), reader, Config{}, WithIntervals(5*time.Millisecond, time.Second))

	assert.False(t, reg.Cancel("robot"))
	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.True(t, reg.Cancel("robot"))
	assert.Equal(t, StateCancelled, h.State())

	h2, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	reg.Close()
	assert.Equal(t, StateCancelled, h2.State())
	_, err = reg.Start("robot", bedroom)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestServiceContextEndsWatches(t *testing.T) {
	reader := &scriptReader{script: []model.Status{model.StatusCleaning}}
	ctx, cancel := context.WithCancel(context.Background())
	reg := NewRegistry(ctx, reader, Config{}, WithIntervals(5*time.Millisecond, time.Second))
	defer reg.Close()

	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	cancel()
	assert.Equal(t, StateCancelled, waitState(t, h))
}

type panickingReader struct{ counts map[string]int }

func (p *panickingReader) Status(context.Context) (model.Status, string, error) {
	p.counts["polls"]++
	return model.StatusCleaning, "", nil
}

type panicMonitor struct {
	mu  sync.Mutex
	got any
}

func (m *panicMonitor) CaptureException(error, map[string]string) {}
func (m *panicMonitor) CapturePanic(v any) {
	m.mu.Lock()
	m.got = v
	m.mu.Unlock()
}
func (m *panicMonitor) Flush(time.Duration) {}

func (m *panicMonitor) value() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.got
}

func TestPanickingPollFailsWatch(t *testing.T) {
	mon := &panicMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	bus := eventbus.New()
	sub := bus.Subscribe()
	store := devicestatus.NewMemoryStore()
	reg := newTestRegistry(t, &panickingReader{}, 5*time.Millisecond, time.Second, WithEventBus(bus), WithStore(store))

	h, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, waitState(t, h))
	assert.NotNil(t, mon.value())

	_, ok := reg.Active("robot")
	assert.False(t, ok)
	ev := (<-sub).(events.MonitorEvent)
	assert.Equal(t, "failed", ev.State)
	st, ok := store.Get("robot")
	require.True(t, ok)
	require.NotNil(t, st.LastOutcome)
	assert.Equal(t, "failed", st.LastOutcome.State)

	h2, err := reg.Start("robot", bedroom)
	require.NoError(t, err)
	assert.NotEqual(t, h.ID, h2.ID)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.Timeout())
	require.NoError(t, cfg.Validate())
	cfg.PollIntervalMS = 400000
	assert.Error(t, cfg.Validate())
}
