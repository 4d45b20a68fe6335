package actuator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/homeassistant/hafake"
)

func newTank(t *testing.T) (*Tank, *hafake.Fake, TankConfig) {
	t.Helper()
	var cfg TankConfig
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	api := hafake.New()
	return NewTank(api, cfg, nil), api, cfg
}

func TestTankTemperatureAdvice(t *testing.T) {
	tank, api, cfg := newTank(t)
	cases := []struct {
		fahrenheit string
		want       string
	}{
		{"78.8", "当前鱼缸水温：26.0℃\n✅  水温适宜"},
		{"71.6", "当前鱼缸水温：22.0℃\n⚠️  水温偏低（适宜24-28℃）"},
		{"86", "当前鱼缸水温：30.0℃\n⚠️  水温偏高（适宜24-28℃）"},
	}
	for _, c := range cases {
		api.SetState(cfg.TemperatureEntity, c.fahrenheit)
		msg, err := tank.TemperatureMessage(context.Background())
		require.NoError(t, err, c.fahrenheit)
		assert.Equal(t, c.want, msg, c.fahrenheit)
	}
}

func TestTankTemperatureFailures(t *testing.T) {
	tank, api, cfg := newTank(t)
	for _, state := range []string{"unavailable", "warm", "NaN"} {
		api.SetState(cfg.TemperatureEntity, state)
		msg, err := tank.TemperatureMessage(context.Background())
		assert.Error(t, err, state)
		assert.Equal(t, "查询失败，请检查传感器是否在线", msg, state)
	}
	api.FailState(cfg.TemperatureEntity, errors.New("dial tcp: refused"))
	_, err := tank.Temperature(context.Background())
	assert.Error(t, err)
}

type celsiusSensor struct{ *hafake.Fake }

func (c celsiusSensor) GetState(ctx context.Context, id string) (homeassistant.Entity, error) {
	ent, err := c.Fake.GetState(ctx, id)
	ent.Attributes = map[string]any{"unit_of_measurement": "°C"}
	return ent, err
}

func TestTankTemperatureCelsiusSensor(t *testing.T) {
	_, api, cfg := newTank(t)
	api.SetState(cfg.TemperatureEntity, "25.5")
	c, err := NewTank(celsiusSensor{api}, cfg, nil).Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.5, c, 0.001)
}

func TestTankStatusReport(t *testing.T) {
	tank, api, cfg := newTank(t)
	api.SetState(cfg.TemperatureEntity, "78.8")
	api.SetState(cfg.LightEntity, "on")
	api.SetState(cfg.PumpEntity, "off")
	api.SetState(cfg.PumpLevelEntity, "Level2")
	api.SetState(cfg.FeedCountEntity, "2")

	r, msg, err := tank.StatusMessage(context.Background())
	require.NoError(t, err)
	assert.True(t, r.LightOn)
	assert.False(t, r.PumpOn)
	assert.Equal(t, "当前鱼缸状态：\n1. 水温：26.0℃\n2. 灯光：开启\n3. 水泵：关闭（档位：Level2）\n4. 今日喂食：2份", msg)

	api.FailState(cfg.PumpLevelEntity, errors.New("timeout"))
	_, msg, err = tank.StatusMessage(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "查询失败，请检查鱼缸是否在线", msg)
}

func TestTankConfigValidate(t *testing.T) {
	cfg := TankConfig{MinCelsius: 28, MaxCelsius: 24}
	cfg.SetDefaults()
	assert.Error(t, cfg.Validate())
	cfg = TankConfig{TemperatureEntity: "temperature"}
	cfg.SetDefaults()
	assert.Error(t, cfg.Validate())
}
