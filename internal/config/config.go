// SPDX-License-Identifier: MIT

// Package config loads the vrdemo configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/vr"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VRDEMO_"

// Config is the complete demo configuration.
type Config struct {
	// Driver names the tracking driver. Empty selects the highest
	// priority available driver.
	Driver string `yaml:"driver"`

	// Frames is the number of frames to run.
	Frames int `yaml:"frames"`

	Render    RenderConfig    `yaml:"render"`
	Log       LogConfig       `yaml:"log"`
	Companion CompanionConfig `yaml:"companion"`
}

// RenderConfig controls the eye surfaces.
type RenderConfig struct {
	Scale             float32    `yaml:"scale"`
	Stencil           bool       `yaml:"stencil"`
	LensMask          bool       `yaml:"lens_mask"`
	Near              float32    `yaml:"near"`
	Far               float32    `yaml:"far"`
	ClearColor        [4]float64 `yaml:"clear_color"` // r, g, b, a in [0, 1]
	MaxEventsPerFrame int        `yaml:"max_events_per_frame"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// CompanionConfig controls the companion image written after the run.
type CompanionConfig struct {
	Eye    string `yaml:"eye"`    // left, right
	Output string `yaml:"output"` // PNG path, empty disables
	Width  int    `yaml:"width"`  // 0 uses the eye surface width
	Height int    `yaml:"height"` // 0 uses the eye surface height
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Frames: 90,
		Render: RenderConfig{
			Scale:             1,
			Near:              vr.DefaultNear,
			Far:               vr.DefaultFar,
			ClearColor:        [4]float64{0, 0, 0, 1},
			MaxEventsPerFrame: vr.DefaultMaxEventsPerFrame,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Companion: CompanionConfig{
			Eye: "left",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. It
// ignores the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from VRDEMO_* variables found through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}

	str("DRIVER", &cfg.Driver)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("COMPANION_EYE", &cfg.Companion.Eye)
	str("COMPANION_OUTPUT", &cfg.Companion.Output)
	num("FRAMES", func(v string) error {
		n, err := strconv.Atoi(v)
		cfg.Frames = n
		return err
	})
	num("RENDER_SCALE", func(v string) error {
		f, err := strconv.ParseFloat(v, 32)
		cfg.Render.Scale = float32(f)
		return err
	})
	num("RENDER_STENCIL", func(v string) error {
		b, err := strconv.ParseBool(v)
		cfg.Render.Stencil = b
		return err
	})
	num("RENDER_LENS_MASK", func(v string) error {
		b, err := strconv.ParseBool(v)
		cfg.Render.LensMask = b
		return err
	})
	return errors.Join(errs...)
}

// Validate checks value ranges.
func Validate(cfg *Config) error {
	var errs []error
	if cfg.Frames <= 0 {
		errs = append(errs, fmt.Errorf("frames must be positive, got %d", cfg.Frames))
	}
	r := cfg.Render
	if !(r.Scale > 0) {
		errs = append(errs, fmt.Errorf("render.scale must be positive, got %v", r.Scale))
	}
	if !(r.Near > 0) || !(r.Far > r.Near) {
		errs = append(errs, fmt.Errorf("render clip planes must satisfy 0 < near < far, got %v, %v", r.Near, r.Far))
	}
	for i, c := range r.ClearColor {
		if c < 0 || c > 1 {
			errs = append(errs, fmt.Errorf("render.clear_color[%d] out of [0, 1]: %v", i, c))
		}
	}
	if r.MaxEventsPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("render.max_events_per_frame must be positive, got %d", r.MaxEventsPerFrame))
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format))
	}
	if _, err := parseEye(cfg.Companion.Eye); err != nil {
		errs = append(errs, err)
	}
	if cfg.Companion.Width < 0 || cfg.Companion.Height < 0 {
		errs = append(errs, fmt.Errorf("companion size must not be negative, got %dx%d",
			cfg.Companion.Width, cfg.Companion.Height))
	}
	return errors.Join(errs...)
}

// ContextOptions translates the render section into vr.New options.
func (c *Config) ContextOptions() []vr.ContextOption {
	r := c.Render
	opts := []vr.ContextOption{
		vr.WithRenderScale(r.Scale),
		vr.WithClipPlanes(r.Near, r.Far),
		vr.WithStencil(r.Stencil),
		vr.WithLensMask(r.LensMask),
		vr.WithMaxEventsPerFrame(r.MaxEventsPerFrame),
		vr.WithClearColor(gputypes.Color{
			R: r.ClearColor[0], G: r.ClearColor[1], B: r.ClearColor[2], A: r.ClearColor[3],
		}),
	}
	if c.Driver != "" {
		opts = append(opts, vr.WithDriver(c.Driver))
	}
	return opts
}

// CompanionEye returns the mirrored eye. Call it on a validated config.
func (c *Config) CompanionEye() vr.Eye {
	eye, _ := parseEye(c.Companion.Eye)
	return eye
}

// NewLogger builds a slog logger writing to w as configured.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func parseEye(s string) (vr.Eye, error) {
	switch strings.ToLower(s) {
	case "left":
		return vr.EyeLeft, nil
	case "right":
		return vr.EyeRight, nil
	}
	return vr.EyeLeft, fmt.Errorf("companion.eye must be left or right, got %q", s)
}
