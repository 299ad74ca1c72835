// Package journal persists the journey history that feeds the prediction
// engine, so it can be replayed after a restart.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/carbontrip/core/factory"
	"github.com/kilianp07/carbontrip/core/model"
)

// Query filters stored journeys. Zero fields match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Mode  model.Mode
}

// Match reports whether j passes the filter.
func (q Query) Match(j model.JourneyPattern) bool {
	if !q.Start.IsZero() && j.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && j.Timestamp.After(q.End) {
		return false
	}
	return q.Mode == "" || j.Mode == q.Mode
}

// Store persists journeys. Load returns them oldest first.
type Store interface {
	Append(ctx context.Context, j model.JourneyPattern) error
	Load(ctx context.Context, q Query) ([]model.JourneyPattern, error)
	Close() error
}

var storeRegistry = factory.NewRegistry[Store]()

func init() {
	_ = RegisterStore("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the configured store. An empty type selects memory.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	return storeRegistry.Create(cfg)
}
