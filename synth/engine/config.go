package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-modsynth/synth/node"
	"github.com/cwbudde/algo-modsynth/synth/snapshot"
)

// Defaults for the bridge queues.
const (
	DefaultRequestQueue = 64
	DefaultFaultLog     = 256
)

// Config holds engine settings. The zero value is not valid; start from
// DefaultConfig.
type Config struct {
	SampleRate      float64 `yaml:"sample_rate"`
	BlockSize       int     `yaml:"block_size"`
	HistoryCapacity int     `yaml:"history_capacity"`
	RequestQueue    int     `yaml:"request_queue"`
	FaultLog        int     `yaml:"fault_log"`
}

// DefaultConfig returns the algo-dsp processor defaults with opts applied,
// plus default history and queue sizes.
func DefaultConfig(opts ...core.ProcessorOption) Config {
	pc := core.ApplyProcessorOptions(opts...)

	return Config{
		SampleRate:      pc.SampleRate,
		BlockSize:       pc.BlockSize,
		HistoryCapacity: snapshot.DefaultCapacity,
		RequestQueue:    DefaultRequestQueue,
		FaultLog:        DefaultFaultLog,
	}
}

// Context returns the node context for this configuration.
func (c Config) Context() node.Context {
	return node.Context{SampleRate: c.SampleRate, BlockSize: c.BlockSize}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	var errs []error

	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be > 0: %v", c.SampleRate))
	}

	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size must be > 0: %d", c.BlockSize))
	}

	if c.HistoryCapacity < 1 {
		errs = append(errs, fmt.Errorf("history_capacity must be >= 1: %d", c.HistoryCapacity))
	}

	if c.RequestQueue < 1 {
		errs = append(errs, fmt.Errorf("request_queue must be >= 1: %d", c.RequestQueue))
	}

	if c.FaultLog < 1 {
		errs = append(errs, fmt.Errorf("fault_log must be >= 1: %d", c.FaultLog))
	}

	if len(errs) > 0 {
		return fmt.Errorf("engine: invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// ParseConfig decodes YAML over DefaultConfig. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	return ParseConfig(data)
}
