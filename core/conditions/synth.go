package conditions

import (
	"context"
	"math/rand/v2"

	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/clock"
)

// IsRushHour reports whether hour falls in the morning (7-9) or evening
// (17-19) peak.
func IsRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

func isShoulderHour(hour int) bool {
	switch hour {
	case 6, 10, 16, 20:
		return true
	}
	return false
}

// stop frequency (stops/km) and idle fraction per congestion level
var congestionProfile = map[model.CongestionLevel]struct{ stops, idle float64 }{
	model.CongestionLow:    {0.5, 0.05},
	model.CongestionMedium: {1.5, 0.10},
	model.CongestionHigh:   {3, 0.20},
	model.CongestionSevere: {5, 0.30},
}

// SynthTraffic derives traffic from the current hour.
type SynthTraffic struct {
	Clock clock.Clock
	// Rand returns a float in [0,1). Defaults to math/rand/v2.Float64.
	Rand func() float64
}

// Traffic ignores the endpoints; only the hour of day matters.
func (s SynthTraffic) Traffic(_ context.Context, _, _ model.Coordinates) (model.TrafficConditions, error) {
	hour := clock.Or(s.Clock).Now().Hour()
	rnd := orRand(s.Rand)

	var tc model.TrafficConditions
	switch {
	case IsRushHour(hour):
		tc.CongestionLevel = model.CongestionHigh
		if rnd() < 0.5 {
			tc.CongestionLevel = model.CongestionSevere
		}
		tc.AverageSpeed = 25
	case isShoulderHour(hour):
		tc.CongestionLevel = model.CongestionMedium
		tc.AverageSpeed = 35
	default:
		tc.CongestionLevel = model.CongestionLow
		tc.AverageSpeed = 50
	}
	p := congestionProfile[tc.CongestionLevel]
	tc.StopFrequency = p.stops
	tc.IdleTime = p.idle
	return tc, nil
}

// SynthLocal draws bounded pseudo-random environment values.
type SynthLocal struct {
	Rand func() float64
}

// Local ignores the location.
func (s SynthLocal) Local(_ context.Context, _ model.Coordinates) (model.LocalFactors, error) {
	rnd := orRand(s.Rand)
	return model.LocalFactors{
		Altitude:    rnd() * 1500,
		Temperature: rnd()*40 - 5,
		Humidity:    30 + rnd()*60,
		AirQuality:  20 + rnd()*130,
		RoadGrade:   rnd()*10 - 5,
	}, nil
}

func orRand(f func() float64) func() float64 {
	if f == nil {
		return rand.Float64
	}
	return f
}
