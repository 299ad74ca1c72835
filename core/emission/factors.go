package emission

import "github.com/kilianp07/carbontrip/core/model"

// GlobalDefault is the base rate (kg CO2/km) used when nothing else matches.
const GlobalDefault = 0.21

// Entry is the base emission intensity of a mode or fuel, with optional
// adjustment curves. A nil curve is neutral.
type Entry struct {
	Rate       float64
	Year       func(year int) float64
	EngineSize func(litres float64) float64
	Weight     func(kg float64) float64
	Efficiency func(per100km float64) float64
}

// Registry holds the static emission factor tables. It is read-only once
// built and safe for concurrent use.
type Registry struct {
	driving        map[model.FuelType]Entry
	drivingDefault Entry
	transit        map[model.TransitSubtype]Entry
	active         map[model.Mode]Entry
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func yearCurve(year int) float64 {
	return clamp(1+float64(2020-year)*0.01, 0.85, 1.4)
}

func engineCurve(litres float64) float64 {
	return clamp(1+(litres-2.0)*0.1, 0.8, 1.6)
}

func weightCurve(kg float64) float64 {
	return clamp(1+(kg-1500)/10000, 0.85, 1.5)
}

// efficiencyCurve compares consumption against a reference vehicle.
func efficiencyCurve(reference float64) func(float64) float64 {
	return func(per100km float64) float64 {
		return clamp(per100km/reference, 0.5, 2.0)
	}
}

func combustion(rate, refConsumption float64) Entry {
	return Entry{
		Rate:       rate,
		Year:       yearCurve,
		EngineSize: engineCurve,
		Weight:     weightCurve,
		Efficiency: efficiencyCurve(refConsumption),
	}
}

// DefaultRegistry returns the built-in factor tables.
func DefaultRegistry() *Registry {
	return &Registry{
		driving: map[model.FuelType]Entry{
			model.FuelGasoline:     combustion(0.21, 8),
			model.FuelDiesel:       combustion(0.17, 6.5),
			model.FuelHybrid:       combustion(0.12, 5),
			model.FuelPluginHybrid: combustion(0.09, 4),
			// no engine displacement for battery vehicles
			model.FuelElectric: {Rate: 0.053, Year: yearCurve, Weight: weightCurve, Efficiency: efficiencyCurve(18)},
		},
		drivingDefault: combustion(GlobalDefault, 8),
		transit: map[model.TransitSubtype]Entry{
			model.TransitBus:    {Rate: 0.089},
			model.TransitTrain:  {Rate: 0.041},
			model.TransitSubway: {Rate: 0.033},
			model.TransitTram:   {Rate: 0.029},
		},
		active: map[model.Mode]Entry{
			model.ModeCycling: {Rate: 0},
			model.ModeWalking: {Rate: 0},
		},
	}
}

// Lookup resolves the entry for a mode. The fallback chain is exact
// mode+fuel, then the mode default, then the global default.
func (r *Registry) Lookup(mode model.Mode, sub model.TransitSubtype, spec *model.VehicleSpec) Entry {
	switch mode {
	case model.ModeDriving:
		if spec != nil {
			if e, ok := r.driving[spec.FuelType]; ok {
				return e
			}
		}
		return r.drivingDefault
	case model.ModeTransit:
		return r.transitEntry(sub)
	case model.ModeCycling, model.ModeWalking:
		return r.active[mode]
	}
	return Entry{Rate: GlobalDefault}
}

// LookupBase returns the base rate in kg CO2/km. It never fails.
func (r *Registry) LookupBase(mode model.Mode, spec *model.VehicleSpec) float64 {
	return r.Lookup(mode, "", spec).Rate
}

// LookupTransitBase returns the transit rate for a subtype, bus when the
// subtype is empty or unknown.
func (r *Registry) LookupTransitBase(sub model.TransitSubtype) float64 {
	return r.transitEntry(sub).Rate
}

// LookupActiveTransportBase returns 0 for cycling and walking. Their
// manufacturing and maintenance share is only reflected in the breakdown.
func (r *Registry) LookupActiveTransportBase(mode model.Mode) float64 {
	return r.active[mode].Rate
}

func (r *Registry) transitEntry(sub model.TransitSubtype) Entry {
	if e, ok := r.transit[sub]; ok {
		return e
	}
	return r.transit[model.TransitBus]
}
