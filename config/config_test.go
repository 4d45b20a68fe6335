package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/homemind/core/actuator"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `homeassistant:
  url: "http://ha.local:8123"
  token: "secret"
robot:
  vacuum_entity: "vacuum.s7"
dispatch:
  battery_threshold: 20
monitor:
  poll_interval_ms: 1000
  timeout_seconds: 60
topology:
  zones:
    - id: kitchen
      name: 厨房
      room_id: 21
      synonyms: ["去厨房"]
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
metrics:
  sinks:
    - type: "nop"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"ha.url", cfg.HomeAssistant.URL, "http://ha.local:8123"},
		{"ha.timeout default", cfg.HomeAssistant.RequestTimeoutMS, 5000},
		{"robot.vacuum", cfg.Robot.VacuumEntity, "vacuum.s7"},
		{"robot.battery default", cfg.Robot.BatteryEntity, "sensor.roborock_a74_c190_battery_level"},
		{"threshold", cfg.Dispatch.Threshold(), 20},
		{"grace default", *cfg.Dispatch.PreemptGraceMS, 300},
		{"poll", cfg.Monitor.PollIntervalMS, 1000},
		{"zones", len(cfg.Topology.Zones), 1},
		{"room_id", cfg.Topology.Zones[0].RoomID, 21},
		{"dock default", cfg.Topology.Dock.ID, "dock"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"mqtt client default", cfg.MQTT.ClientID, "homemind"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"listen", cfg.API.Listen, ":8080"},
		{"logging", cfg.Logging.Level, "info"},
		{"actuators", len(cfg.Actuators), len(actuator.DefaultActuators())},
		{"tank default", cfg.Tank.TemperatureEntity, "sensor.xiaomi_m200_2c39_temperature"},
		{"tank band", cfg.Tank.MaxCelsius, 28.0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"homeassistant":{"url":"http://ha.local:8123","token":"file"}}`)
	t.Setenv("HM_HOMEASSISTANT__TOKEN", "from-env")
	t.Setenv("HM_DISPATCH__BATTERY_THRESHOLD", "35")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.HomeAssistant.Token != "from-env" {
		t.Errorf("token = %q", cfg.HomeAssistant.Token)
	}
	if cfg.Dispatch.Threshold() != 35 {
		t.Errorf("threshold = %d", cfg.Dispatch.Threshold())
	}
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	path := writeConfig(t, "config.yaml", `homeassistant:
  url: "http://ha.local:8123"
  token: "x"
dispatch:
  battery_threshold: 0
  preempt_grace_ms: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Dispatch.Threshold() != 0 || cfg.Dispatch.PreemptGrace() != 0 {
		t.Fatalf("explicit zero overridden: threshold %d grace %s", cfg.Dispatch.Threshold(), cfg.Dispatch.PreemptGrace())
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"missing token":   `{"homeassistant":{"url":"http://ha.local:8123"}}`,
		"bad threshold":   `{"homeassistant":{"url":"http://ha.local:8123","token":"x"},"dispatch":{"battery_threshold":150}}`,
		"bad entity":      `{"homeassistant":{"url":"http://ha.local:8123","token":"x"},"robot":{"battery_entity":"battery"}}`,
		"bad log level":   `{"homeassistant":{"url":"http://ha.local:8123","token":"x"},"logging":{"level":"loud"}}`,
		"duplicate actor": `{"homeassistant":{"url":"http://ha.local:8123","token":"x"},"actuators":[{"name":"a","entity_id":"switch.a","kind":"switch"},{"name":"a","entity_id":"switch.b","kind":"switch"}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.json", data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestSentryDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "homeassistant:\n  url: \"http://ha.local:8123\"\n  token: \"x\"\nsentry:\n  dsn: \"https://key@sentry.example/1\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sentry.ServerName != "homemind" || cfg.Sentry.Environment != "production" {
		t.Fatalf("unexpected sentry defaults %+v", cfg.Sentry)
	}
	cfg.Sentry.TracesSampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected sample rate error")
	}
}
