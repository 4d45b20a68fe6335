package metrics

import (
	"fmt"

	"github.com/kilianp07/homemind/core/factory"
)

// Config lists the sinks every record is written to. No sinks means a
// NopSink.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// Validate rejects sinks without a type or of an unregistered type.
func (c Config) Validate() error {
	known := map[string]bool{}
	for _, t := range SinkTypes() {
		known[t] = true
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
		if len(known) > 0 && !known[s.Type] {
			return fmt.Errorf("metrics.sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
