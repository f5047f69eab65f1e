package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/iliyamo/restaurant-manager/internal/layout"
)

// LayoutConfig holds the seating editor settings that may be overridden from
// a TOML file:
//
//	[metrics]
//	short_side  = 100
//	unit_length = 30
//	margin      = 5
//
//	[canvas]
//	default_width  = 1200
//	default_height = 800
type LayoutConfig struct {
	Metrics layout.Metrics `toml:"metrics"`
	Canvas  CanvasConfig   `toml:"canvas"`
}

// CanvasConfig is the canvas size given to halls created without one.
type CanvasConfig struct {
	DefaultWidth  float64 `toml:"default_width"`
	DefaultHeight float64 `toml:"default_height"`
}

// DefaultLayoutConfig is used when no file is configured.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Metrics: layout.DefaultMetrics,
		Canvas:  CanvasConfig{DefaultWidth: 1200, DefaultHeight: 800},
	}
}

// LoadLayoutConfig reads path on top of the defaults.  An empty path returns
// the defaults.  Keys missing from the file keep their default value.
func LoadLayoutConfig(path string) (LayoutConfig, error) {
	cfg := DefaultLayoutConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return LayoutConfig{}, fmt.Errorf("layout config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return LayoutConfig{}, fmt.Errorf("layout config %s: %w", path, err)
	}
	return cfg, nil
}

func (c LayoutConfig) validate() error {
	switch {
	case c.Metrics.ShortSide <= 0:
		return fmt.Errorf("metrics.short_side must be positive")
	case c.Metrics.UnitLength <= 0:
		return fmt.Errorf("metrics.unit_length must be positive")
	case c.Metrics.Margin < 0:
		return fmt.Errorf("metrics.margin must not be negative")
	case c.Canvas.DefaultWidth <= 0 || c.Canvas.DefaultHeight <= 0:
		return fmt.Errorf("canvas defaults must be positive")
	}
	return nil
}
