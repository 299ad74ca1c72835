package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/carbontrip/core/factory"
	"github.com/kilianp07/carbontrip/core/metrics"
	"github.com/kilianp07/carbontrip/infra/monitoring"
	"github.com/kilianp07/carbontrip/infra/tracing"
)

type Config struct {
	Emission   EmissionConfig    `json:"emission"`
	Providers  ProvidersConfig   `json:"providers"`
	Prediction PredictionConfig  `json:"prediction"`
	Metrics    metrics.Config    `json:"metrics"`
	Journal    JournalConfig     `json:"journal"`
	Logging    LoggingConfig     `json:"logging"`
	Telemetry  tracing.Config    `json:"telemetry"`
	Monitoring monitoring.Config `json:"monitoring"`
	API        APIConfig         `json:"api"`
}

// APIConfig exposes the HTTP API when Listen is set. A non-empty Token is
// required as a bearer token on every request.
type APIConfig struct {
	Listen string `json:"listen"`
	Token  string `json:"token"`
}

// JournalConfig selects the journey store and whether it is replayed into
// the prediction engine at startup.
type JournalConfig struct {
	Store         factory.ModuleConfig `json:"store"`
	ReplayOnStart bool                 `json:"replay_on_start"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Emission.SetDefaults()
	c.Providers.SetDefaults()
	c.Prediction.SetDefaults()
	c.Logging.SetDefaults()
	c.Telemetry.SetDefaults()
	if c.Journal.Store.Type == "" {
		c.Journal.Store.Type = "memory"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"emission", c.Emission.Validate},
		{"providers", c.Providers.Validate},
		{"prediction", c.Prediction.Validate},
		{"metrics", c.Metrics.Validate},
		{"logging", c.Logging.Validate},
		{"telemetry", c.Telemetry.Validate},
		{"monitoring", c.Monitoring.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// Load reads the YAML or JSON file at path, applies K_ prefixed environment
// overrides (K_PREDICTION__MAX_JOURNEYS=500), then defaults and validation.
// An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
