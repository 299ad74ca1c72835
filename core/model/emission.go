package model

// Breakdown splits total emissions by origin.
type Breakdown struct {
	Fuel           float64 `json:"fuel"`
	Manufacturing  float64 `json:"manufacturing"`
	Maintenance    float64 `json:"maintenance"`
	Infrastructure float64 `json:"infrastructure"`
}

// Factors exposes the multipliers applied to the base rate. Route holds the
// base rate in kg CO2/km.
type Factors struct {
	Traffic float64 `json:"traffic"`
	Weather float64 `json:"weather"`
	Vehicle float64 `json:"vehicle"`
	Route   float64 `json:"route"`
}

// EmissionResult is the outcome of a single trip estimate.
type EmissionResult struct {
	TotalEmissions  float64   `json:"totalEmissions"` // kg CO2
	Breakdown       Breakdown `json:"breakdown"`
	Confidence      float64   `json:"confidence"` // 0-95
	Factors         Factors   `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}
