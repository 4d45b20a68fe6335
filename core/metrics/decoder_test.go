package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	metrics "github.com/kilianp07/homemind/core/metrics"
	_ "github.com/kilianp07/homemind/infra/metrics"
)

// Test decoding from YAML with multiple sinks.
func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: nop
`
	k := koanf.New(".")
	if err := k.Load(rawBytes(data), yaml.Parser()); err != nil {
		t.Fatalf("yaml load: %v", err)
	}
	var cfg metrics.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*metrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink")
	}
}

// Test decoding from JSON with invalid sink type.
func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"missing"}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

type rawBytes string

func (r rawBytes) ReadBytes() ([]byte, error) { return []byte(r), nil }
func (r rawBytes) Read() (map[string]any, error) {
	return nil, nil
}
