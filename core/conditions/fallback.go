package conditions

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/carbontrip/core/logger"
	"github.com/kilianp07/carbontrip/core/model"
)

// ErrRateLimited is reported to the logger when the limiter rejects a call.
var ErrRateLimited = errors.New("provider rate limited")

// Guard holds the protections shared by the fallback wrappers.
type Guard struct {
	// Timeout bounds each primary call. Zero disables the bound.
	Timeout time.Duration
	// Limiter is optional; calls it rejects go straight to the fallback.
	Limiter *rate.Limiter
	Log     logger.Logger
}

func (g Guard) call(ctx context.Context, name string, primary func(context.Context) error) error {
	if g.Limiter != nil && !g.Limiter.Allow() {
		logger.OrNop(g.Log).Warnf("%s provider: %v, using synthesized values", name, ErrRateLimited)
		return ErrRateLimited
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	if err := primary(ctx); err != nil {
		logger.OrNop(g.Log).Warnf("%s provider: %v, using synthesized values", name, err)
		return err
	}
	return nil
}

// FallbackTraffic queries Primary and falls back to Fallback on failure.
type FallbackTraffic struct {
	Primary  TrafficSource
	Fallback TrafficSource
	Guard
}

// Traffic never fails unless the fallback does.
func (f FallbackTraffic) Traffic(ctx context.Context, origin, destination model.Coordinates) (model.TrafficConditions, error) {
	var tc model.TrafficConditions
	err := f.call(ctx, "traffic", func(ctx context.Context) error {
		var err error
		tc, err = f.Primary.Traffic(ctx, origin, destination)
		return err
	})
	if err == nil {
		return tc, nil
	}
	return f.Fallback.Traffic(ctx, origin, destination)
}

// FallbackLocal queries Primary and falls back to Fallback on failure.
type FallbackLocal struct {
	Primary  LocalSource
	Fallback LocalSource
	Guard
}

// Local never fails unless the fallback does.
func (f FallbackLocal) Local(ctx context.Context, at model.Coordinates) (model.LocalFactors, error) {
	var lf model.LocalFactors
	err := f.call(ctx, "local", func(ctx context.Context) error {
		var err error
		lf, err = f.Primary.Local(ctx, at)
		return err
	})
	if err == nil {
		return lf, nil
	}
	return f.Fallback.Local(ctx, at)
}
