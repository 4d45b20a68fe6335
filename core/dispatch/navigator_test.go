package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/events"
	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/monitor"
	coremon "github.com/kilianp07/homemind/core/monitoring"
	"github.com/kilianp07/homemind/internal/eventbus"
)

const helpText = "不支持该指令哦～ 目前可调度机器人：\n1. 前往房间：客厅、卧室、书房\n2. 返回充电座：回充、返回充电座、回家"

func waitHandle(t *testing.T, h *monitor.Handle) monitor.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := h.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestInterruptAndGoToBedroom(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe()
	store := devicestatus.NewMemoryStore()
	h := newHarness(t, "80", WithEventBus(bus), WithStatusStore(store))

	res := h.nav.Navigate(context.Background(), "别扫了去卧室")
	require.True(t, res.Outcome.Success)
	assert.Equal(t, "已强制中断当前任务，机器人正在前往卧室清扫～", res.Outcome.Message)
	assert.Equal(t, events.StageDispatched, res.Stage)

	calls := h.api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "stop", calls[0].Service)
	assert.Equal(t, "send_command", calls[1].Service)
	assert.Equal(t, []int{17}, calls[1].Data["params"])
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, h.slept)

	require.NotNil(t, res.Handle)
	h.api.SetState(robot.StatusEntity, "idle")
	assert.Equal(t, monitor.StateCompleted, waitHandle(t, res.Handle))

	ev := (<-sub).(events.DispatchEvent)
	assert.Equal(t, "别扫了去卧室", ev.Input)
	assert.Equal(t, "bedroom", ev.Destination.ID)
	assert.True(t, ev.Success)

	st, ok := store.Get("robot")
	require.True(t, ok)
	assert.True(t, st.LastDispatch.Success)

	recs := h.sink.all()
	require.Len(t, recs, 1)
	assert.Equal(t, events.StageDispatched, recs[0].Stage)
}

func TestSynonymsResolveToSameCommand(t *testing.T) {
	var params []any
	for _, in := range []string{"去客厅", "打扫客厅", "中断当前任务去客厅", "客厅"} {
		h := newHarness(t, "50")
		res := h.nav.Navigate(context.Background(), in)
		require.True(t, res.Outcome.Success, in)
		sc := h.api.CallsTo("vacuum", "send_command")
		require.Len(t, sc, 1, in)
		params = append(params, sc[0].Data["params"])
	}
	for _, p := range params {
		assert.Equal(t, []int{16}, p)
	}
}

func TestDockPhraseSendsReturnToBase(t *testing.T) {
	h := newHarness(t, "50")
	res := h.nav.Navigate(context.Background(), "回充")
	require.True(t, res.Outcome.Success)
	assert.Equal(t, "已强制中断当前任务，机器人正在返回充电座～", res.Outcome.Message)
	assert.Len(t, h.api.CallsTo("vacuum", "return_to_base"), 1)
	assert.Empty(t, h.api.CallsTo("vacuum", "send_command"))
}

func TestUnknownTargetReturnsHelp(t *testing.T) {
	for _, in := range []string{"", "   ", "火星", "去厨房"} {
		h := newHarness(t, "50")
		msg := h.nav.NavigateToLocation(context.Background(), in)
		assert.Equal(t, helpText, msg, in)
		assert.Empty(t, h.api.Calls(), in)
		assert.Zero(t, h.api.Reads(robot.BatteryEntity), in)
	}
}

func TestLowBatteryIssuesNoCommand(t *testing.T) {
	h := newHarness(t, "5")
	res := h.nav.Navigate(context.Background(), "卧室")
	assert.False(t, res.Outcome.Success)
	assert.Equal(t, events.StageBlocked, res.Stage)
	assert.Equal(t, "机器人电量不足10%，已无法执行任务，请手动回充", res.Outcome.Message)
	assert.Empty(t, h.api.Calls())

	h.api.SetState(robot.BatteryEntity, "10")
	res = h.nav.Navigate(context.Background(), "卧室")
	assert.True(t, res.Outcome.Success)
}

func TestBlockedRequestKeepsActiveWatch(t *testing.T) {
	h := newHarness(t, "50")
	first := h.nav.Navigate(context.Background(), "书房")
	require.NotNil(t, first.Handle)

	h.api.SetState(robot.BatteryEntity, "unavailable")
	res := h.nav.Navigate(context.Background(), "卧室")
	assert.Equal(t, "操作失败：无法获取机器人电量", res.Outcome.Message)
	assert.Equal(t, monitor.StateWatching, first.Handle.State())
	active, ok := h.registry.Active("robot")
	require.True(t, ok)
	assert.Same(t, first.Handle, active)
	assert.Len(t, h.api.Calls(), 2)
}

func TestFailedStopStillDispatches(t *testing.T) {
	h := newHarness(t, "50")
	h.api.FailService("vacuum", "stop", &homeassistant.StatusError{Op: "vacuum/stop", StatusCode: 500})

	res := h.nav.Navigate(context.Background(), "客厅")
	assert.True(t, res.Outcome.Success)
	assert.Len(t, h.api.CallsTo("vacuum", "send_command"), 1)
	assert.Empty(t, h.slept)
}

type captureMonitor struct {
	err  error
	tags map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.err = err
	c.tags = tags
}
func (c *captureMonitor) CapturePanic(any)    {}
func (c *captureMonitor) Flush(time.Duration) {}

func TestSendFailureIsCapturedAndNotWatched(t *testing.T) {
	mon := &captureMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	h := newHarness(t, "50")
	h.api.FailService("vacuum", "send_command", errors.New("dial tcp: i/o timeout"))
	res := h.nav.Navigate(context.Background(), "卧室")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, "操作失败，请检查设备是否在线或重试", res.Outcome.Message)
	assert.Nil(t, res.Handle)
	_, ok := h.registry.Active("robot")
	assert.False(t, ok)
	require.Error(t, mon.err)
	assert.Equal(t, "dispatcher", mon.tags["module"])
	assert.Equal(t, "robot", mon.tags["device_id"])
}

func TestNewCommandSupersedesWatch(t *testing.T) {
	h := newHarness(t, "50")
	first := h.nav.Navigate(context.Background(), "客厅")
	second := h.nav.Navigate(context.Background(), "回家")
	require.NotNil(t, first.Handle)
	require.NotNil(t, second.Handle)

	select {
	case <-first.Handle.Done():
	default:
		t.Fatal("superseded watch still running")
	}
	assert.Equal(t, monitor.StateCancelled, first.Handle.State())

	h.api.SetState(robot.StatusEntity, "charging")
	assert.Equal(t, monitor.StateCompleted, waitHandle(t, second.Handle))
	assert.Equal(t, monitor.StateCancelled, first.Handle.State())
}

func TestWatchOutlivesRequestContext(t *testing.T) {
	h := newHarness(t, "50")
	ctx, cancel := context.WithCancel(context.Background())
	res := h.nav.Navigate(ctx, "卧室")
	cancel()
	require.NotNil(t, res.Handle)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, monitor.StateWatching, res.Handle.State())
}
