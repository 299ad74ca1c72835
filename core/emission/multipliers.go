package emission

import (
	"math"

	"github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/model"
)

// CongestionStep is the congestion-level factor shared with the prediction
// engine.
func CongestionStep(level model.CongestionLevel) float64 {
	switch level {
	case model.CongestionSevere:
		return 1.6
	case model.CongestionHigh:
		return 1.4
	case model.CongestionMedium:
		return 1.2
	case model.CongestionLow:
		return 0.9
	default:
		return 1.0
	}
}

// TimeOfDayFactor is 1.3 in rush hour, 0.8 at night (22h-6h), 1 otherwise.
func TimeOfDayFactor(hour int) float64 {
	switch {
	case conditions.IsRushHour(hour):
		return 1.3
	case hour >= 22 || hour < 6:
		return 0.8
	default:
		return 1.0
	}
}

// TrafficMultiplier compounds every traffic factor. Factors stack on
// purpose: a severe, slow, stop-and-go trip pays for each.
func TrafficMultiplier(tc *model.TrafficConditions, hour *int) float64 {
	m := 1.0
	if tc != nil {
		m *= CongestionStep(tc.CongestionLevel)
		// A zero speed means the source reported none.
		switch {
		case tc.AverageSpeed > 0 && tc.AverageSpeed < 20:
			m *= 1.3
		case tc.AverageSpeed > 60:
			m *= 0.8
		}
		if tc.StopFrequency > 0 {
			m *= 1 + tc.StopFrequency*0.1
		}
		if tc.IdleTime > 0 {
			m *= 1 + tc.IdleTime*0.5
		}
	}
	if hour != nil {
		m *= TimeOfDayFactor(*hour)
	}
	return m
}

// EnvironmentMultiplier applies altitude, temperature and road grade.
func EnvironmentMultiplier(lf *model.LocalFactors) float64 {
	if lf == nil {
		return 1
	}
	m := 1.0
	if lf.Altitude > 1000 {
		m *= 1 + (lf.Altitude-1000)/10000
	}
	switch {
	case lf.Temperature < 0:
		m *= 1.15
	case lf.Temperature > 35:
		m *= 1.10
	}
	switch {
	case lf.RoadGrade > 0:
		m *= 1 + lf.RoadGrade/100*0.5
	case lf.RoadGrade < 0:
		m *= 1 + math.Abs(lf.RoadGrade)/100*0.2
	}
	return m
}

// VehicleMultiplier applies the entry curves for every known vehicle field.
func VehicleMultiplier(e Entry, spec *model.VehicleSpec) float64 {
	if spec == nil {
		return 1
	}
	m := 1.0
	if spec.Year > 0 && e.Year != nil {
		m *= e.Year(spec.Year)
	}
	if spec.Efficiency > 0 && e.Efficiency != nil {
		m *= e.Efficiency(spec.Efficiency)
	}
	if spec.EngineSize > 0 && e.EngineSize != nil {
		m *= e.EngineSize(spec.EngineSize)
	}
	if spec.Weight > 0 && e.Weight != nil {
		m *= e.Weight(spec.Weight)
	}
	return m
}
