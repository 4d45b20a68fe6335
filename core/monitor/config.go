package monitor

import (
	"fmt"
	"time"
)

// Config controls completion watches.
type Config struct {
	PollIntervalMS int `json:"poll_interval_ms"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies a 3s poll interval and a 5 minute watch timeout.
func (c *Config) SetDefaults() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 3000
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 300
	}
}

// Validate ensures the poll interval is shorter than the timeout.
func (c Config) Validate() error {
	if c.PollInterval() >= c.Timeout() {
		return fmt.Errorf("monitor.poll_interval_ms (%d) must be below monitor.timeout_seconds (%d)", c.PollIntervalMS, c.TimeoutSeconds)
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
