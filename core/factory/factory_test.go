package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpoint struct {
	URL     string
	Timeout int
	Enabled bool
}

type endpointConf struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout_ms"`
	Enabled bool   `json:"enabled"`
}

func endpointFactory(conf map[string]any) (*endpoint, error) {
	var c endpointConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &endpoint{URL: c.URL, Timeout: c.Timeout, Enabled: c.Enabled}, nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*endpoint]()
	require.NoError(t, reg.Register("http", endpointFactory))

	ep, err := reg.Create(ModuleConfig{Type: "http", Conf: map[string]any{"url": "http://influx:8086", "timeout_ms": 500}})
	require.NoError(t, err)
	assert.Equal(t, "http://influx:8086", ep.URL)
	assert.Equal(t, 500, ep.Timeout)
}

func TestDecodeAcceptsStrings(t *testing.T) {
	var c endpointConf
	require.NoError(t, Decode(map[string]any{"timeout_ms": "250", "enabled": "true"}, &c))
	assert.Equal(t, 250, c.Timeout)
	assert.True(t, c.Enabled)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[*endpoint]()
	require.NoError(t, reg.Register("http", endpointFactory))
	require.NoError(t, reg.Register("nop", func(map[string]any) (*endpoint, error) { return &endpoint{}, nil }))

	assert.Error(t, reg.Register("http", endpointFactory), "duplicate")
	assert.Error(t, reg.Register("other", nil), "nil factory")

	_, err := reg.Create(ModuleConfig{Type: "kafka"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"kafka"`)
	assert.Contains(t, err.Error(), "known: http, nop")
	assert.Equal(t, []string{"http", "nop"}, reg.Types())
}
