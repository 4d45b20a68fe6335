package dispatch

import (
	"fmt"
	"time"
)

// Config defines dispatch-related settings. The numeric fields are pointers
// so an explicit 0 is kept: a 0% floor never blocks and a 0ms grace sends
// the new command right after the stop.
type Config struct {
	// DeviceID names the robot in logs, events and status queries.
	DeviceID         string `json:"device_id"`
	BatteryThreshold *int   `json:"battery_threshold"`
	PreemptGraceMS   *int   `json:"preempt_grace_ms"`
}

// SetDefaults applies the robot defaults to unset fields: 10% battery floor
// and a 300ms grace after stop.
func (c *Config) SetDefaults() {
	if c.DeviceID == "" {
		c.DeviceID = "robot"
	}
	if c.BatteryThreshold == nil {
		c.BatteryThreshold = intPtr(10)
	}
	if c.PreemptGraceMS == nil {
		c.PreemptGraceMS = intPtr(300)
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if t := c.Threshold(); t < 0 || t > 100 {
		return fmt.Errorf("dispatch.battery_threshold must be within 0-100, got %d", t)
	}
	if c.PreemptGraceMS != nil && *c.PreemptGraceMS < 0 {
		return fmt.Errorf("dispatch.preempt_grace_ms must not be negative")
	}
	return nil
}

// Threshold is the battery floor in percent.
func (c Config) Threshold() int {
	if c.BatteryThreshold == nil {
		return 0
	}
	return *c.BatteryThreshold
}

// PreemptGrace is the pause after an accepted stop.
func (c Config) PreemptGrace() time.Duration {
	if c.PreemptGraceMS == nil {
		return 0
	}
	return time.Duration(*c.PreemptGraceMS) * time.Millisecond
}

func intPtr(v int) *int { return &v }
