package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/homemind/core/actuator"
	"github.com/kilianp07/homemind/core/dispatch"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/monitor"
	"github.com/kilianp07/homemind/core/telemetry"
	"github.com/kilianp07/homemind/core/topology"
	"github.com/kilianp07/homemind/infra/homeassistant"
	"github.com/kilianp07/homemind/infra/mqtt"
)

// EnvPrefix marks environment overrides. HM_HOMEASSISTANT__TOKEN sets
// homeassistant.token.
const EnvPrefix = "HM_"

// APIConfig configures the HTTP tool server.
type APIConfig struct {
	Listen string `json:"listen"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}

type Config struct {
	HomeAssistant homeassistant.Config `json:"homeassistant"`
	Robot         telemetry.Config     `json:"robot"`
	Topology      topology.Config      `json:"topology"`
	Dispatch      dispatch.Config      `json:"dispatch"`
	Monitor       monitor.Config       `json:"monitor"`
	Actuators     []actuator.Config    `json:"actuators"`
	Tank          actuator.TankConfig  `json:"tank"`
	API           APIConfig            `json:"api"`
	MQTT          mqtt.Config          `json:"mqtt"`
	Metrics       metrics.Config       `json:"metrics"`
	Logging       LoggingConfig        `json:"logging"`
	Sentry        SentryConfig         `json:"sentry"`
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.HomeAssistant.SetDefaults()
	c.Robot.SetDefaults()
	c.Topology.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Monitor.SetDefaults()
	if c.Actuators == nil {
		c.Actuators = actuator.DefaultActuators()
	}
	c.Tank.SetDefaults()
	c.API.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and stops at the first error.
func (c Config) Validate() error {
	checks := []func() error{
		c.HomeAssistant.Validate,
		c.Robot.Validate,
		c.Topology.Validate,
		c.Dispatch.Validate,
		c.Monitor.Validate,
		func() error { return actuator.ValidateAll(c.Actuators) },
		c.Tank.Validate,
		c.MQTT.Validate,
		c.Metrics.Validate,
		c.Logging.Validate,
		c.Sentry.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the file at path, applies HM_ environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
