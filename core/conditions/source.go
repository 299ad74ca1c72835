// Package conditions supplies traffic and local environment snapshots.
//
// Real feeds are out of reach of the core, so the default sources synthesize
// values from the clock with bounded randomness. A real provider can be
// plugged in behind FallbackTraffic or FallbackLocal, which keep the
// synthesized values as a safety net when the provider fails, times out or
// is rate limited.
package conditions

import (
	"context"

	"github.com/kilianp07/carbontrip/core/model"
)

// TrafficSource returns the traffic between two points.
type TrafficSource interface {
	Traffic(ctx context.Context, origin, destination model.Coordinates) (model.TrafficConditions, error)
}

// LocalSource returns the environment at a point.
type LocalSource interface {
	Local(ctx context.Context, at model.Coordinates) (model.LocalFactors, error)
}

// TrafficFunc adapts a function to TrafficSource.
type TrafficFunc func(ctx context.Context, origin, destination model.Coordinates) (model.TrafficConditions, error)

func (f TrafficFunc) Traffic(ctx context.Context, o, d model.Coordinates) (model.TrafficConditions, error) {
	return f(ctx, o, d)
}

// LocalFunc adapts a function to LocalSource.
type LocalFunc func(ctx context.Context, at model.Coordinates) (model.LocalFactors, error)

func (f LocalFunc) Local(ctx context.Context, at model.Coordinates) (model.LocalFactors, error) {
	return f(ctx, at)
}
