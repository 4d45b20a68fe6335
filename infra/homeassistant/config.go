package homeassistant

import (
	"fmt"
	"net/url"
	"time"
)

// Config defines how to reach the Home Assistant instance.
type Config struct {
	URL              string `json:"url"`
	Token            string `json:"token"`
	RequestTimeoutMS int    `json:"request_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RequestTimeoutMS <= 0 {
		c.RequestTimeoutMS = 5000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("homeassistant.url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("homeassistant.url %q is not an absolute URL", c.URL)
	}
	if c.Token == "" {
		return fmt.Errorf("homeassistant.token is required")
	}
	return nil
}

// RequestTimeout is the per-call network timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
