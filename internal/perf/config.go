// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package perf

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"code.hybscloud.com/disruptor"
)

// Config describes one benchmark pipeline.
type Config struct {
	Producers    int    `yaml:"producers"`
	ProducerType string `yaml:"producerType"`
	WaitStrategy string `yaml:"waitStrategy"`
	BufferSize   int    `yaml:"bufferSize"`
	Stages       int    `yaml:"stages"`
	Events       int64  `yaml:"events"`
	Batch        int    `yaml:"batch"`
	Pool         int    `yaml:"pool"`
	CPUs         []int  `yaml:"cpus"`
}

// WaitStrategyNames lists the accepted wait strategy names.
var WaitStrategyNames = []string{"blocking", "busyspin", "yielding", "sleeping", "backoff"}

// ProducerTypeNames lists the accepted producer type names.
var ProducerTypeNames = []string{"single", "multi"}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("perf: invalid config")

// DefaultConfig returns a single-stage, single-producer pipeline.
func DefaultConfig() Config {
	return Config{
		Producers:    1,
		ProducerType: "single",
		WaitStrategy: "yielding",
		BufferSize:   1 << 16,
		Stages:       1,
		Events:       10_000_000,
		Batch:        1,
	}
}

// LoadConfig reads a YAML pipeline file over the defaults.
// Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and names.
func (c Config) Validate() error {
	if _, err := c.producerType(); err != nil {
		return err
	}
	if _, err := c.waitStrategy(); err != nil {
		return err
	}
	switch {
	case c.Producers < 1:
		return fmt.Errorf("%w: producers must be >= 1, got %d", ErrInvalidConfig, c.Producers)
	case c.ProducerType == "single" && c.Producers != 1:
		return fmt.Errorf("%w: single producer type with %d producers", ErrInvalidConfig, c.Producers)
	case c.BufferSize < 1 || c.BufferSize&(c.BufferSize-1) != 0:
		return fmt.Errorf("%w: buffer size must be a power of 2, got %d", ErrInvalidConfig, c.BufferSize)
	case c.Stages < 1:
		return fmt.Errorf("%w: stages must be >= 1, got %d", ErrInvalidConfig, c.Stages)
	case c.Events < 1:
		return fmt.Errorf("%w: events must be >= 1, got %d", ErrInvalidConfig, c.Events)
	case c.Batch < 1 || c.Batch > c.BufferSize:
		return fmt.Errorf("%w: batch must be in [1, %d], got %d", ErrInvalidConfig, c.BufferSize, c.Batch)
	case c.Pool != 0 && c.Pool < c.Stages:
		return fmt.Errorf("%w: pool of %d cannot run %d stages", ErrInvalidConfig, c.Pool, c.Stages)
	}
	for _, cpu := range c.CPUs {
		if cpu < 0 {
			return fmt.Errorf("%w: negative cpu %d", ErrInvalidConfig, cpu)
		}
	}
	return nil
}

func (c Config) producerType() (disruptor.ProducerType, error) {
	switch c.ProducerType {
	case "single":
		return disruptor.ProducerSingle, nil
	case "multi":
		return disruptor.ProducerMulti, nil
	default:
		return 0, fmt.Errorf("%w: unknown producer type %q: must be one of %v", ErrInvalidConfig, c.ProducerType, ProducerTypeNames)
	}
}

func (c Config) waitStrategy() (disruptor.WaitStrategy, error) {
	switch c.WaitStrategy {
	case "blocking":
		return disruptor.NewBlockingWaitStrategy(), nil
	case "busyspin":
		return disruptor.NewBusySpinWaitStrategy(), nil
	case "yielding":
		return disruptor.NewYieldingWaitStrategy(), nil
	case "sleeping":
		return disruptor.NewSleepingWaitStrategy(), nil
	case "backoff":
		return disruptor.NewBackoffWaitStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown wait strategy %q: must be one of %v", ErrInvalidConfig, c.WaitStrategy, WaitStrategyNames)
	}
}
