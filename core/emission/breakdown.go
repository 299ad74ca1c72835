package emission

import "github.com/kilianp07/carbontrip/core/model"

type split struct{ fuel, manufacturing, maintenance, infrastructure float64 }

var (
	defaultSplit  = split{0.70, 0.15, 0.10, 0.05}
	electricSplit = split{0.40, 0.35, 0.15, 0.10}
	activeSplit   = split{0, 0.80, 0.20, 0}
)

// Breakdown splits total by a fixed percentage table chosen from the mode and
// fuel type.
func Breakdown(total float64, mode model.Mode, spec *model.VehicleSpec) model.Breakdown {
	s := defaultSplit
	switch {
	case mode.IsActive():
		s = activeSplit
	case mode == model.ModeDriving && spec != nil && spec.FuelType == model.FuelElectric:
		s = electricSplit
	}
	return model.Breakdown{
		Fuel:           total * s.fuel,
		Manufacturing:  total * s.manufacturing,
		Maintenance:    total * s.maintenance,
		Infrastructure: total * s.infrastructure,
	}
}

// Confidence scores how much context backed an estimate, capped at 95.
func Confidence(hasVehicle, hasTraffic, hasLocal bool) float64 {
	c := 70.0
	if hasVehicle {
		c += 15
	}
	if hasTraffic {
		c += 10
	}
	if hasLocal {
		c += 5
	}
	return min(c, 95)
}
