// Package config holds the runtime settings of the bomb readers.
//
// Settings are layered: defaults from New, then an optional YAML file, then
// BOMB_ environment variables. See Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"bomb-vision/internal/calibrate"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// AssetsDir holds template sets and an optional font.ttf. Empty selects
	// the built-in font and disables symbol readers.
	AssetsDir string `koanf:"assets_dir"`

	// Interpolation is the rectifier sampling mode: bilinear or nearest.
	Interpolation string `koanf:"interpolation"`

	// WidgetThreshold is the minimum confidence for a widget reading.
	WidgetThreshold float64 `koanf:"widget_threshold"`

	// OverlayDir receives annotated PNGs; empty disables them.
	OverlayDir string `koanf:"overlay_dir"`

	// MetricsAddr serves /metrics when set, e.g. ":9100".
	MetricsAddr string `koanf:"metrics_addr"`

	// FrameHashDistance is the largest perceptual hash distance at which a
	// new screenshot counts as unchanged.
	FrameHashDistance int `koanf:"frame_hash_distance"`

	// WatchInterval is the polling period of the screenshot directory.
	WatchInterval time.Duration `koanf:"watch_interval"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Interpolation:     calibrate.Bilinear.String(),
		WidgetThreshold:   0.25,
		FrameHashDistance: 4,
		WatchInterval:     500 * time.Millisecond,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if _, err := calibrate.ParseInterpolation(c.Interpolation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.WidgetThreshold < 0 || c.WidgetThreshold > 1 {
		return fmt.Errorf("%w: widget_threshold %v outside [0, 1]", ErrInvalidConfig, c.WidgetThreshold)
	}
	if c.FrameHashDistance < 0 {
		return fmt.Errorf("%w: frame_hash_distance %d is negative", ErrInvalidConfig, c.FrameHashDistance)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("%w: watch_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// InterpolationMode returns the parsed rectifier mode. Call Validate first.
func (c *Config) InterpolationMode() calibrate.Interpolation {
	m, err := calibrate.ParseInterpolation(c.Interpolation)
	if err != nil {
		return calibrate.Bilinear
	}
	return m
}
