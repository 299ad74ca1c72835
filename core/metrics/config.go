package metrics

import (
	"fmt"

	"github.com/kilianp07/carbontrip/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Listen is the address of the /metrics endpoint. Empty disables it.
	Listen string `json:"listen"`
}

// Validate ensures every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	return nil
}
