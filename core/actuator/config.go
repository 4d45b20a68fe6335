package actuator

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects the service family used to drive an actuator.
type Kind string

const (
	KindSwitch Kind = "switch"
	KindNumber Kind = "number"
	KindSelect Kind = "select"
)

// Config describes one controllable entity.
type Config struct {
	Name     string `json:"name"`
	EntityID string `json:"entity_id"`
	Kind     Kind   `json:"kind"`
	// ReadbackEntity is read after a successful command to confirm it.
	ReadbackEntity string   `json:"readback_entity"`
	Options        []string `json:"options"`
	Min            float64  `json:"min"`
	Max            float64  `json:"max"`
	// Values maps named inputs of a number actuator onto the value sent,
	// e.g. a colour name onto its RGB integer.
	Values map[string]float64 `json:"values"`
	// FollowUp is a switch turned on after every successful command. Its
	// failure is logged and does not change the outcome.
	FollowUp string `json:"follow_up"`
}

// Domain is the entity domain, e.g. "light" for "light.desk".
func (c Config) Domain() string {
	d, _, _ := strings.Cut(c.EntityID, ".")
	return d
}

// HasRange reports whether number values are bounded.
func (c Config) HasRange() bool { return c.Max > c.Min }

// Validate checks a single actuator definition.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("actuator name is required")
	}
	if !strings.Contains(c.EntityID, ".") {
		return fmt.Errorf("actuator %s: entity_id %q is not an entity id", c.Name, c.EntityID)
	}
	switch c.Kind {
	case KindSwitch, KindNumber, KindSelect:
	default:
		return fmt.Errorf("actuator %s: unknown kind %q", c.Name, c.Kind)
	}
	if c.Kind == KindNumber && c.Max < c.Min {
		return fmt.Errorf("actuator %s: max %v below min %v", c.Name, c.Max, c.Min)
	}
	if len(c.Values) > 0 && c.Kind != KindNumber {
		return fmt.Errorf("actuator %s: values are only supported by number actuators", c.Name)
	}
	for name, v := range c.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("actuator %s: value %q is not finite", c.Name, name)
		}
	}
	if c.FollowUp != "" && !strings.Contains(c.FollowUp, ".") {
		return fmt.Errorf("actuator %s: follow_up %q is not an entity id", c.Name, c.FollowUp)
	}
	return nil
}

// ValidateAll checks every definition and rejects duplicate names.
func ValidateAll(cfgs []Config) error {
	seen := map[string]bool{}
	for _, c := range cfgs {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("actuator %s defined twice", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// lightEditSwitch makes colour and brightness edits take effect on the tank
// light.
const lightEditSwitch = "switch.xiaomi_m200_2c39_light_edit_on"

// ColorValues are the colour names accepted by the tank light.
func ColorValues() map[string]float64 {
	return map[string]float64{
		"红色": 0xFF0000,
		"绿色": 0x00FF00,
		"蓝色": 0x0000FF,
		"白色": 0xFFFFFF,
		"黄色": 0xFFFF00,
		"粉色": 0xFFC0CB,
		"青色": 0x00FFFF,
		"紫色": 0x800080,
	}
}

// DefaultActuators are the aquarium entities exposed next to the robot.
func DefaultActuators() []Config {
	return []Config{
		{Name: "fish_tank_light", EntityID: "switch.xiaomi_m200_2c39_switch_status", Kind: KindSwitch},
		{Name: "fish_tank_pump", EntityID: "switch.xiaomi_m200_2c39_water_pump", Kind: KindSwitch},
		{Name: "fish_tank_pump_flux", EntityID: "select.xiaomi_m200_2c39_pump_flux", Kind: KindSelect, Options: []string{"Level1", "Level2"}},
		{Name: "fish_tank_feeder", EntityID: "select.xiaomi_m200_2c39_pet_food_out", Kind: KindSelect, Options: []string{"1", "2", "3"}, ReadbackEntity: "sensor.xiaomi_m200_2c39_today_feeded_num"},
		{Name: "fish_tank_brightness", EntityID: "number.xiaomi_m200_2c39_light_edit_bright", Kind: KindNumber, Min: 1, Max: 100, FollowUp: lightEditSwitch},
		{Name: "fish_tank_color", EntityID: "number.xiaomi_m200_2c39_light_edit_color", Kind: KindNumber, Values: ColorValues(), FollowUp: lightEditSwitch},
	}
}
