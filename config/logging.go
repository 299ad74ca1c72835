package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the level and format names.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}
