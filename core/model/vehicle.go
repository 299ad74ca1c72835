package model

import "fmt"

// FuelType identifies the energy source of a vehicle.
type FuelType string

const (
	FuelGasoline     FuelType = "gasoline"
	FuelDiesel       FuelType = "diesel"
	FuelHybrid       FuelType = "hybrid"
	FuelElectric     FuelType = "electric"
	FuelPluginHybrid FuelType = "plugin-hybrid"
)

// IsValid reports whether f is a known fuel type.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelGasoline, FuelDiesel, FuelHybrid, FuelElectric, FuelPluginHybrid:
		return true
	}
	return false
}

// VehicleSpec describes the vehicle used for a driving trip. Zero values mean
// the field is unknown and the neutral adjustment applies.
type VehicleSpec struct {
	FuelType   FuelType `json:"fuelType"`
	EngineSize float64  `json:"engineSize,omitempty"` // litres
	Year       int      `json:"year,omitempty"`
	Efficiency float64  `json:"efficiency,omitempty"` // L/100km, kWh/100km for electric
	Weight     float64  `json:"weight,omitempty"`     // kg
}

// Validate rejects physically impossible values.
func (v VehicleSpec) Validate() error {
	if v.EngineSize < 0 {
		return &InputError{Field: "vehicle.engineSize", Reason: fmt.Sprintf("must not be negative, got %v", v.EngineSize)}
	}
	if v.Efficiency < 0 {
		return &InputError{Field: "vehicle.efficiency", Reason: fmt.Sprintf("must not be negative, got %v", v.Efficiency)}
	}
	if v.Weight < 0 {
		return &InputError{Field: "vehicle.weight", Reason: fmt.Sprintf("must not be negative, got %v", v.Weight)}
	}
	return nil
}
