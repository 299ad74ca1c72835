package conditions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/clock"
)

func at(hour int) clock.Clock {
	return clock.NewFixed(time.Date(2025, 3, 12, hour, 15, 0, 0, time.UTC))
}

func TestSynthTrafficByHour(t *testing.T) {
	cases := []struct {
		hour  int
		rnd   float64
		level model.CongestionLevel
		speed float64
	}{
		{8, 0.2, model.CongestionSevere, 25},
		{18, 0.7, model.CongestionHigh, 25},
		{10, 0.2, model.CongestionMedium, 35},
		{14, 0.2, model.CongestionLow, 50},
		{2, 0.9, model.CongestionLow, 50},
	}
	for _, c := range cases {
		s := SynthTraffic{Clock: at(c.hour), Rand: func() float64 { return c.rnd }}
		tc, err := s.Traffic(context.Background(), model.Coordinates{}, model.Coordinates{})
		require.NoError(t, err)
		assert.Equal(t, c.level, tc.CongestionLevel, "hour %d", c.hour)
		assert.Equal(t, c.speed, tc.AverageSpeed, "hour %d", c.hour)
		assert.Equal(t, congestionProfile[c.level].stops, tc.StopFrequency)
		assert.Equal(t, congestionProfile[c.level].idle, tc.IdleTime)
	}
}

func TestSynthLocalBounds(t *testing.T) {
	for _, r := range []float64{0, 0.5, 0.999999} {
		s := SynthLocal{Rand: func() float64 { return r }}
		lf, err := s.Local(context.Background(), model.Coordinates{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, lf.Altitude, 0.0)
		assert.Less(t, lf.Altitude, 1500.0)
		assert.GreaterOrEqual(t, lf.Temperature, -5.0)
		assert.Less(t, lf.Temperature, 35.0)
		assert.GreaterOrEqual(t, lf.Humidity, 30.0)
		assert.Less(t, lf.Humidity, 90.0)
		assert.GreaterOrEqual(t, lf.RoadGrade, -5.0)
		assert.Less(t, lf.RoadGrade, 5.0)
	}
}

var fallbackTraffic = TrafficFunc(func(context.Context, model.Coordinates, model.Coordinates) (model.TrafficConditions, error) {
	return model.TrafficConditions{CongestionLevel: model.CongestionLow, AverageSpeed: 50}, nil
})

func TestFallbackTrafficUsesPrimary(t *testing.T) {
	f := FallbackTraffic{
		Primary: TrafficFunc(func(context.Context, model.Coordinates, model.Coordinates) (model.TrafficConditions, error) {
			return model.TrafficConditions{CongestionLevel: model.CongestionSevere}, nil
		}),
		Fallback: fallbackTraffic,
	}
	tc, err := f.Traffic(context.Background(), model.Coordinates{}, model.Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, model.CongestionSevere, tc.CongestionLevel)
}

func TestFallbackTrafficOnErrorAndTimeout(t *testing.T) {
	failing := TrafficFunc(func(context.Context, model.Coordinates, model.Coordinates) (model.TrafficConditions, error) {
		return model.TrafficConditions{}, errors.New("feed down")
	})
	slow := TrafficFunc(func(ctx context.Context, _, _ model.Coordinates) (model.TrafficConditions, error) {
		<-ctx.Done()
		return model.TrafficConditions{}, ctx.Err()
	})
	for _, p := range []TrafficSource{failing, slow} {
		f := FallbackTraffic{Primary: p, Fallback: fallbackTraffic, Guard: Guard{Timeout: 10 * time.Millisecond}}
		tc, err := f.Traffic(context.Background(), model.Coordinates{}, model.Coordinates{})
		require.NoError(t, err)
		assert.Equal(t, model.CongestionLow, tc.CongestionLevel)
	}
}

func TestFallbackLocalRateLimited(t *testing.T) {
	calls := 0
	f := FallbackLocal{
		Primary: LocalFunc(func(context.Context, model.Coordinates) (model.LocalFactors, error) {
			calls++
			return model.LocalFactors{Altitude: 2000}, nil
		}),
		Fallback: LocalFunc(func(context.Context, model.Coordinates) (model.LocalFactors, error) {
			return model.LocalFactors{Altitude: 10}, nil
		}),
		Guard: Guard{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)},
	}
	first, err := f.Local(context.Background(), model.Coordinates{})
	require.NoError(t, err)
	second, err := f.Local(context.Background(), model.Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, first.Altitude)
	assert.Equal(t, 10.0, second.Altitude)
	assert.Equal(t, 1, calls)
}
