package emission

import "github.com/kilianp07/carbontrip/core/model"

// Advisory strings. Heuristic only; the list is neither exhaustive nor learned.
const (
	RecHighEmissions   = "Consider public transit or carpooling for this trip to cut emissions significantly."
	RecModerate        = "Combining errands into a single trip can reduce your emissions."
	RecAvoidRushHour   = "Heavy traffic expected: departing outside rush hour could lower emissions by up to 30%."
	RecShortTrip       = "For trips under 5 km, walking or cycling produces no direct emissions."
	RecCleanerVehicle  = "A hybrid or electric vehicle could reduce emissions on trips like this by 50-70%."
	RecReduceIdling    = "Switching the engine off while stationary reduces idling emissions."
	RecActiveTransport = "Great choice: this trip produces no direct emissions."
)

func recommendations(total, distance float64, mode model.Mode, spec *model.VehicleSpec, tc *model.TrafficConditions) []string {
	recs := []string{}
	switch {
	case total > 10:
		recs = append(recs, RecHighEmissions)
	case total > 5:
		recs = append(recs, RecModerate)
	}
	if tc != nil && (tc.CongestionLevel == model.CongestionHigh || tc.CongestionLevel == model.CongestionSevere) {
		recs = append(recs, RecAvoidRushHour)
	}
	if mode == model.ModeDriving {
		if distance < 5 {
			recs = append(recs, RecShortTrip)
		}
		if total > 5 && !lowEmissionFuel(spec) {
			recs = append(recs, RecCleanerVehicle)
		}
		if tc != nil && tc.IdleTime > 0.2 {
			recs = append(recs, RecReduceIdling)
		}
	}
	if mode.IsActive() {
		recs = append(recs, RecActiveTransport)
	}
	return recs
}

func lowEmissionFuel(spec *model.VehicleSpec) bool {
	if spec == nil {
		return false
	}
	switch spec.FuelType {
	case model.FuelElectric, model.FuelHybrid, model.FuelPluginHybrid:
		return true
	}
	return false
}
