// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads triad settings from a TOML or YAML file and the
// environment.
//
// Load applies, in order: built-in defaults, the file (if any), then
// TRIAD_* environment variables. For example TRIAD_RENDER_QUEUE_CAPACITY=16
// overrides render_queue.capacity.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/triad"
	"github.com/gogpu/triad/spsc"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRIAD_"

// ErrUnknownFormat is returned for config files that are neither TOML
// nor YAML.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Config is the file and environment representation of triad.Config plus
// the demo's logging settings.
type Config struct {
	InputQueue    QueueConfig   `toml:"input_queue" yaml:"input_queue" envPrefix:"INPUT_QUEUE_"`
	RenderQueue   QueueConfig   `toml:"render_queue" yaml:"render_queue" envPrefix:"RENDER_QUEUE_"`
	TickRate      int           `toml:"tick_rate" yaml:"tick_rate" env:"TICK_RATE"`
	FrameInterval time.Duration `toml:"frame_interval" yaml:"frame_interval" env:"FRAME_INTERVAL"`
	BatchCapacity int           `toml:"batch_capacity" yaml:"batch_capacity" env:"BATCH_CAPACITY"`
	Logging       LoggingConfig `toml:"logging" yaml:"logging" envPrefix:"LOG_"`
}

// QueueConfig sizes one queue.
type QueueConfig struct {
	Capacity int           `toml:"capacity" yaml:"capacity" env:"CAPACITY"`
	Overflow spsc.Overflow `toml:"overflow" yaml:"overflow" env:"OVERFLOW"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" env:"LEVEL"`
	Format string `toml:"format" yaml:"format" env:"FORMAT"` // "text" or "json"
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	d := triad.DefaultConfig()
	return &Config{
		InputQueue:    QueueConfig{Capacity: d.InputQueue.Capacity, Overflow: d.InputQueue.Overflow},
		RenderQueue:   QueueConfig{Capacity: d.RenderQueue.Capacity, Overflow: d.RenderQueue.Overflow},
		TickRate:      d.TickRate,
		FrameInterval: d.FrameInterval,
		BatchCapacity: d.BatchCapacity,
		Logging:       LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration. An empty path skips the file. The format
// follows the extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return nil
}

// Topology returns the settings for triad.Start.
func (c *Config) Topology() triad.Config {
	return triad.Config{
		InputQueue:    triad.QueueConfig{Capacity: c.InputQueue.Capacity, Overflow: c.InputQueue.Overflow},
		RenderQueue:   triad.QueueConfig{Capacity: c.RenderQueue.Capacity, Overflow: c.RenderQueue.Overflow},
		TickRate:      c.TickRate,
		FrameInterval: c.FrameInterval,
		BatchCapacity: c.BatchCapacity,
	}
}

// Validate checks the topology settings and the logging settings.
func (c *Config) Validate() error {
	if err := c.Topology().Validate(); err != nil {
		return err
	}
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
}

// NewLogger builds a slog logger writing to w, or nil for level "off".
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	if strings.EqualFold(l.Level, "off") {
		return nil, nil
	}
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (l LoggingConfig) level() (slog.Level, error) {
	if strings.EqualFold(l.Level, "off") {
		return slog.LevelError, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}
