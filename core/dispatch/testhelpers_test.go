package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/homemind/core/homeassistant/hafake"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/monitor"
	"github.com/kilianp07/homemind/core/telemetry"
	"github.com/kilianp07/homemind/core/topology"
)

var robot = func() telemetry.Config {
	var c telemetry.Config
	c.SetDefaults()
	return c
}()

type recordingSink struct {
	mu   sync.Mutex
	recs []metrics.DispatchRecord
}

func (r *recordingSink) RecordDispatch(rec metrics.DispatchRecord) error {
	r.mu.Lock()
	r.recs = append(r.recs, rec)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) all() []metrics.DispatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.DispatchRecord(nil), r.recs...)
}

type harness struct {
	nav      *Navigator
	api      *hafake.Fake
	registry *monitor.Registry
	sink     *recordingSink
	slept    []time.Duration
}

func newHarness(t *testing.T, battery string, opts ...Option) *harness {
	t.Helper()
	ResetMetrics(nil)
	api := hafake.New()
	api.SetState(robot.BatteryEntity, battery)
	api.SetState(robot.StatusEntity, "segment_cleaning")
	api.SetState(robot.VacuumEntity, "cleaning")

	res, err := topology.New(topology.DefaultConfig())
	require.NoError(t, err)
	reader := telemetry.NewReader(api, robot)
	reg := monitor.NewRegistry(context.Background(), reader, monitor.Config{},
		monitor.WithIntervals(5*time.Millisecond, 2*time.Second))
	t.Cleanup(reg.Close)

	h := &harness{api: api, registry: reg, sink: &recordingSink{}}
	opts = append([]Option{WithMetricsSink(h.sink)}, opts...)
	h.nav = NewNavigator(Config{}, robot.VacuumEntity, res, api, reader, reg, opts...)
	h.nav.preempt.sleep = func(d time.Duration) { h.slept = append(h.slept, d) }
	return h
}
