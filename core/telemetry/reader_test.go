package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/homeassistant/hafake"
	"github.com/kilianp07/homemind/core/model"
)

func TestParseBattery(t *testing.T) {
	cases := []struct {
		in   string
		want int
		err  error
	}{
		{"87", 87, nil},
		{"9.5", 10, nil},
		{"9.4", 9, nil},
		{" 100 ", 100, nil},
		{"unavailable", 0, homeassistant.ErrEntityUnavailable},
		{"", 0, homeassistant.ErrEntityUnavailable},
		{"abc", 0, ErrInvalidBattery},
		{"140", 0, ErrInvalidBattery},
	}
	for _, c := range cases {
		got, err := ParseBattery(c.in)
		if c.err != nil {
			assert.ErrorIs(t, err, c.err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestReadNeverCaches(t *testing.T) {
	api := hafake.New()
	cfg := Config{}
	cfg.SetDefaults()
	api.SetState(cfg.BatteryEntity, "50")
	api.SetState(cfg.StatusEntity, "segment_cleaning")
	r := NewReader(api, Config{})

	st, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, st.Battery)
	assert.Equal(t, model.StatusCleaning, st.Status)
	assert.Equal(t, "segment_cleaning", st.RawStatus)

	api.SetState(cfg.BatteryEntity, "49")
	b, err := r.Battery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 49, b)
	assert.Equal(t, 2, api.Reads(cfg.BatteryEntity))
}

func TestStatusFallsBackToVacuumEntity(t *testing.T) {
	api := hafake.New()
	cfg := Config{}
	cfg.SetDefaults()
	api.SetState(cfg.StatusEntity, "unavailable")
	api.SetState(cfg.VacuumEntity, "docked")
	r := NewReader(api, cfg)

	st, raw, err := r.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDocked, st)
	assert.Equal(t, "docked", raw)
}

func TestStatusUnavailable(t *testing.T) {
	api := hafake.New()
	cfg := Config{}
	cfg.SetDefaults()
	api.FailState(cfg.StatusEntity, errors.New("dial tcp: refused"))
	api.SetState(cfg.VacuumEntity, "unavailable")
	r := NewReader(api, cfg)

	_, _, err := r.Status(context.Background())
	assert.ErrorIs(t, err, homeassistant.ErrEntityUnavailable)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	cfg.BatteryEntity = "battery"
	assert.Error(t, cfg.Validate())
}
