package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/carbontrip/auth"
	"github.com/kilianp07/carbontrip/internal/cache"
)

// EmissionConfig sizes the condition caches of the emission engine.
type EmissionConfig struct {
	TrafficCache cache.Options `json:"traffic_cache"`
	LocalCache   cache.Options `json:"local_cache"`
}

func (c *EmissionConfig) SetDefaults() {
	if c.TrafficCache.Size == 0 {
		c.TrafficCache.Size = 4096
	}
	if c.TrafficCache.TTL == 0 {
		c.TrafficCache.TTL = 15 * time.Minute
	}
	if c.LocalCache.Size == 0 {
		c.LocalCache.Size = 4096
	}
	if c.LocalCache.TTL == 0 {
		c.LocalCache.TTL = 24 * time.Hour
	}
}

func (c EmissionConfig) Validate() error {
	if err := validCache("traffic_cache", c.TrafficCache); err != nil {
		return err
	}
	return validCache("local_cache", c.LocalCache)
}

// ProvidersConfig points at an optional HTTP conditions service. Without a
// URL the synthesized conditions are used directly.
type ProvidersConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	// RateLimit is the number of requests per second, Burst the bucket size.
	RateLimit float64 `json:"rate_limit"`
	Burst     int     `json:"burst"`
	// Auth enables OAuth2 client credentials when client_id is set.
	Auth auth.Conf `json:"auth"`
}

func (c *ProvidersConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
	if c.Burst == 0 {
		c.Burst = 20
	}
}

func (c ProvidersConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.RateLimit < 0 || c.Burst < 0 {
		return fmt.Errorf("rate_limit and burst must not be negative")
	}
	if c.Auth.ClientID != "" && c.Auth.TokenURL == "" {
		return fmt.Errorf("auth.token_url is required with auth.client_id")
	}
	return nil
}

// Distance providers.
const (
	DistanceHaversine = "haversine"
	DistanceStub      = "stub"
)

// PredictionConfig tunes the prediction engine.
type PredictionConfig struct {
	RetrainInterval int           `json:"retrain_interval"`
	MaxJourneys     int           `json:"max_journeys"`
	Cache           cache.Options `json:"cache"`
	Distance        string        `json:"distance"`
}

func (c *PredictionConfig) SetDefaults() {
	if c.RetrainInterval == 0 {
		c.RetrainInterval = 100
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 8192
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Distance == "" {
		c.Distance = DistanceHaversine
	}
}

func (c PredictionConfig) Validate() error {
	if c.RetrainInterval < 0 {
		return fmt.Errorf("retrain_interval must not be negative")
	}
	if c.MaxJourneys < 0 {
		return fmt.Errorf("max_journeys must not be negative")
	}
	if c.Distance != DistanceHaversine && c.Distance != DistanceStub {
		return fmt.Errorf("unknown distance provider %s", c.Distance)
	}
	return validCache("cache", c.Cache)
}

func validCache(name string, o cache.Options) error {
	if o.Size < 0 || o.TTL < 0 {
		return fmt.Errorf("%s: size and ttl must not be negative", name)
	}
	return nil
}
