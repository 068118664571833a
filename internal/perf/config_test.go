// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package perf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/disruptor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "single", cfg.ProducerType)
	assert.Equal(t, 1, cfg.Producers)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
producers: 4
producerType: multi
waitStrategy: busyspin
bufferSize: 1024
stages: 3
events: 5000
batch: 8
pool: 4
cpus: [0, 1]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Producers:    4,
		ProducerType: "multi",
		WaitStrategy: "busyspin",
		BufferSize:   1024,
		Stages:       3,
		Events:       5000,
		Batch:        8,
		Pool:         4,
		CPUs:         []int{0, 1},
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "events: 42\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Events)
	assert.Equal(t, DefaultConfig().BufferSize, cfg.BufferSize)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "producer: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown producer type", func(c *Config) { c.ProducerType = "many" }},
		{"unknown wait strategy", func(c *Config) { c.WaitStrategy = "lazy" }},
		{"no producers", func(c *Config) { c.Producers = 0 }},
		{"single with many producers", func(c *Config) { c.Producers = 2 }},
		{"buffer not power of 2", func(c *Config) { c.BufferSize = 1000 }},
		{"no stages", func(c *Config) { c.Stages = 0 }},
		{"no events", func(c *Config) { c.Events = 0 }},
		{"batch larger than buffer", func(c *Config) { c.BufferSize = 4; c.Batch = 8 }},
		{"pool smaller than stages", func(c *Config) { c.Stages = 3; c.Pool = 2 }},
		{"negative cpu", func(c *Config) { c.CPUs = []int{-1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigWaitStrategies(t *testing.T) {
	for _, name := range WaitStrategyNames {
		cfg := DefaultConfig()
		cfg.WaitStrategy = name
		ws, err := cfg.waitStrategy()
		require.NoError(t, err, name)
		assert.Equal(t, name == "blocking", ws.IsBlocking(), name)
	}
}

func TestConfigProducerTypes(t *testing.T) {
	cfg := DefaultConfig()
	pt, err := cfg.producerType()
	require.NoError(t, err)
	assert.Equal(t, disruptor.ProducerSingle, pt)

	cfg.ProducerType = "multi"
	pt, err = cfg.producerType()
	require.NoError(t, err)
	assert.Equal(t, disruptor.ProducerMulti, pt)
}
