package actuator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/infra/logger"
)

const (
	msgTemperature       = "当前鱼缸水温：%.1f℃\n%s"
	msgTemperatureLow    = "⚠️  水温偏低（适宜%g-%g℃）"
	msgTemperatureHigh   = "⚠️  水温偏高（适宜%g-%g℃）"
	msgTemperatureOK     = "✅  水温适宜"
	msgTemperatureFailed = "查询失败，请检查传感器是否在线"
	msgTankStatus        = "当前鱼缸状态：\n1. 水温：%.1f℃\n2. 灯光：%s\n3. 水泵：%s（档位：%s）\n4. 今日喂食：%s份"
	msgTankFailed        = "查询失败，请检查鱼缸是否在线"
)

// TankConfig names the read-only aquarium sensors.
type TankConfig struct {
	TemperatureEntity string  `json:"temperature_entity"`
	LightEntity       string  `json:"light_entity"`
	PumpEntity        string  `json:"pump_entity"`
	PumpLevelEntity   string  `json:"pump_level_entity"`
	FeedCountEntity   string  `json:"feed_count_entity"`
	MinCelsius        float64 `json:"min_celsius"`
	MaxCelsius        float64 `json:"max_celsius"`
}

// SetDefaults fills in the Xiaomi M200 entities and a 24-28℃ comfort band.
func (c *TankConfig) SetDefaults() {
	if c.TemperatureEntity == "" {
		c.TemperatureEntity = "sensor.xiaomi_m200_2c39_temperature"
	}
	if c.LightEntity == "" {
		c.LightEntity = "light.xiaomi_m200_2c39_light"
	}
	if c.PumpEntity == "" {
		c.PumpEntity = "switch.xiaomi_m200_2c39_water_pump"
	}
	if c.PumpLevelEntity == "" {
		c.PumpLevelEntity = "select.xiaomi_m200_2c39_pump_flux"
	}
	if c.FeedCountEntity == "" {
		c.FeedCountEntity = "sensor.xiaomi_m200_2c39_today_feeded_num"
	}
	if c.MinCelsius == 0 && c.MaxCelsius == 0 {
		c.MinCelsius, c.MaxCelsius = 24, 28
	}
}

// Validate checks entity ids and the comfort band.
func (c TankConfig) Validate() error {
	for key, id := range map[string]string{
		"temperature_entity": c.TemperatureEntity,
		"light_entity":       c.LightEntity,
		"pump_entity":        c.PumpEntity,
		"pump_level_entity":  c.PumpLevelEntity,
		"feed_count_entity":  c.FeedCountEntity,
	} {
		if !strings.Contains(id, ".") {
			return fmt.Errorf("tank.%s %q is not an entity id", key, id)
		}
	}
	if c.MaxCelsius <= c.MinCelsius {
		return fmt.Errorf("tank.max_celsius (%g) must be above tank.min_celsius (%g)", c.MaxCelsius, c.MinCelsius)
	}
	return nil
}

// TankReport is a snapshot of the aquarium.
type TankReport struct {
	Celsius   float64 `json:"celsius"`
	LightOn   bool    `json:"light_on"`
	PumpOn    bool    `json:"pump_on"`
	PumpLevel string  `json:"pump_level"`
	FedToday  string  `json:"fed_today"`
}

// Tank answers read-only aquarium queries. Values are never cached.
type Tank struct {
	api homeassistant.StateReader
	cfg TankConfig
	log logger.Logger
}

// NewTank returns a tank reader over api.
func NewTank(api homeassistant.StateReader, cfg TankConfig, log logger.Logger) *Tank {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Tank{api: api, cfg: cfg, log: log}
}

// Temperature returns the water temperature in Celsius. Sensors reporting
// in °C are used as is; anything else is read as Fahrenheit.
func (t *Tank) Temperature(ctx context.Context) (float64, error) {
	ent, err := t.api.GetState(ctx, t.cfg.TemperatureEntity)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	state := strings.TrimSpace(ent.State)
	if homeassistant.IsOffline(state) {
		return 0, fmt.Errorf("read temperature: %w", homeassistant.ErrEntityUnavailable)
	}
	v, err := strconv.ParseFloat(state, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("read temperature: %w: %q", homeassistant.ErrMalformedResponse, ent.State)
	}
	if unit, _ := ent.Attributes["unit_of_measurement"].(string); unit == "°C" {
		return v, nil
	}
	return (v - 32) * 5 / 9, nil
}

// TemperatureMessage renders the temperature with a comfort advice.
func (t *Tank) TemperatureMessage(ctx context.Context) (string, error) {
	c, err := t.Temperature(ctx)
	if err != nil {
		t.log.Warnf("tank: %v", err)
		return msgTemperatureFailed, err
	}
	return fmt.Sprintf(msgTemperature, c, t.advice(c)), nil
}

func (t *Tank) advice(c float64) string {
	switch {
	case c < t.cfg.MinCelsius:
		return fmt.Sprintf(msgTemperatureLow, t.cfg.MinCelsius, t.cfg.MaxCelsius)
	case c > t.cfg.MaxCelsius:
		return fmt.Sprintf(msgTemperatureHigh, t.cfg.MinCelsius, t.cfg.MaxCelsius)
	default:
		return msgTemperatureOK
	}
}

// Report reads every tank sensor. It fails on the first unreadable one.
func (t *Tank) Report(ctx context.Context) (TankReport, error) {
	var r TankReport
	var err error
	if r.Celsius, err = t.Temperature(ctx); err != nil {
		return TankReport{}, err
	}
	states := make(map[string]string, 4)
	for _, id := range []string{t.cfg.LightEntity, t.cfg.PumpEntity, t.cfg.PumpLevelEntity, t.cfg.FeedCountEntity} {
		ent, err := t.api.GetState(ctx, id)
		if err != nil {
			return TankReport{}, fmt.Errorf("read %s: %w", id, err)
		}
		states[id] = ent.State
	}
	r.LightOn = states[t.cfg.LightEntity] == "on"
	r.PumpOn = states[t.cfg.PumpEntity] == "on"
	r.PumpLevel = states[t.cfg.PumpLevelEntity]
	r.FedToday = states[t.cfg.FeedCountEntity]
	return r, nil
}

// StatusMessage renders the full report.
func (t *Tank) StatusMessage(ctx context.Context) (TankReport, string, error) {
	r, err := t.Report(ctx)
	if err != nil {
		t.log.Warnf("tank: %v", err)
		return TankReport{}, msgTankFailed, err
	}
	return r, fmt.Sprintf(msgTankStatus, r.Celsius, onOff(r.LightOn), onOff(r.PumpOn), r.PumpLevel, r.FedToday), nil
}

func onOff(on bool) string {
	if on {
		return "开启"
	}
	return "关闭"
}
