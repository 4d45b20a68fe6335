// Package telemetry reads the robot's battery and activity status on demand.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/homemind/core/homeassistant"
	"github.com/kilianp07/homemind/core/model"
)

// ErrInvalidBattery is returned when the battery state is not a number.
var ErrInvalidBattery = errors.New("invalid battery level")

// Config names the entities that describe the robot.
type Config struct {
	VacuumEntity  string `json:"vacuum_entity"`
	StatusEntity  string `json:"status_entity"`
	BatteryEntity string `json:"battery_entity"`
}

// SetDefaults fills in the entities of the Roborock integration.
func (c *Config) SetDefaults() {
	if c.VacuumEntity == "" {
		c.VacuumEntity = "vacuum.roborock_a74_c190_robot_cleaner"
	}
	if c.StatusEntity == "" {
		c.StatusEntity = "sensor.roborock_a74_c190_status"
	}
	if c.BatteryEntity == "" {
		c.BatteryEntity = "sensor.roborock_a74_c190_battery_level"
	}
}

// Validate checks that entity ids carry a domain.
func (c Config) Validate() error {
	for key, id := range map[string]string{
		"vacuum_entity":  c.VacuumEntity,
		"status_entity":  c.StatusEntity,
		"battery_entity": c.BatteryEntity,
	} {
		if !strings.Contains(id, ".") {
			return fmt.Errorf("robot.%s %q is not an entity id", key, id)
		}
	}
	return nil
}

// Reader fetches live device state. Values are never cached.
type Reader interface {
	Battery(ctx context.Context) (int, error)
	Status(ctx context.Context) (model.Status, string, error)
	Read(ctx context.Context) (model.DeviceState, error)
}

// HAReader reads telemetry from Home Assistant entities.
type HAReader struct {
	api homeassistant.StateReader
	cfg Config
	now func() time.Time
}

var _ Reader = (*HAReader)(nil)

// NewReader returns a reader over api.
func NewReader(api homeassistant.StateReader, cfg Config) *HAReader {
	cfg.SetDefaults()
	return &HAReader{api: api, cfg: cfg, now: time.Now}
}

// Battery returns the charge level as a rounded percentage.
func (r *HAReader) Battery(ctx context.Context) (int, error) {
	ent, err := r.api.GetState(ctx, r.cfg.BatteryEntity)
	if err != nil {
		return 0, fmt.Errorf("read battery: %w", err)
	}
	return ParseBattery(ent.State)
}

// Status returns the normalised status and the raw value it came from. The
// status sensor is preferred; the vacuum entity is used when the sensor is
// offline.
func (r *HAReader) Status(ctx context.Context) (model.Status, string, error) {
	ent, err := r.api.GetState(ctx, r.cfg.StatusEntity)
	if err == nil && !homeassistant.IsOffline(ent.State) {
		return model.ParseStatus(ent.State), ent.State, nil
	}
	vac, verr := r.api.GetState(ctx, r.cfg.VacuumEntity)
	if verr != nil {
		if err == nil {
			err = verr
		}
		return model.StatusUnknown, "", fmt.Errorf("read status: %w", err)
	}
	if homeassistant.IsOffline(vac.State) {
		return model.StatusUnknown, vac.State, fmt.Errorf("read status: %w", homeassistant.ErrEntityUnavailable)
	}
	return model.ParseStatus(vac.State), vac.State, nil
}

// Read returns a full snapshot. It fails when either value cannot be read.
func (r *HAReader) Read(ctx context.Context) (model.DeviceState, error) {
	b, err := r.Battery(ctx)
	if err != nil {
		return model.DeviceState{}, err
	}
	st, raw, err := r.Status(ctx)
	if err != nil {
		return model.DeviceState{}, err
	}
	return model.DeviceState{Battery: b, Status: st, RawStatus: raw, ReadAt: r.now()}, nil
}

// ParseBattery converts a Home Assistant state string to a percentage.
// Fractional values are rounded to the nearest integer.
func ParseBattery(state string) (int, error) {
	state = strings.TrimSpace(state)
	if homeassistant.IsOffline(state) {
		return 0, homeassistant.ErrEntityUnavailable
	}
	f, err := strconv.ParseFloat(state, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBattery, state)
	}
	b := int(math.Round(f))
	if b < 0 || b > 100 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidBattery, b)
	}
	return b, nil
}
