package model

import (
	"fmt"
	"time"
)

// JourneyPattern is one historical trip used for prediction.
type JourneyPattern struct {
	ID          string             `json:"id"`
	Origin      string             `json:"origin"`
	Destination string             `json:"destination"`
	Mode        Mode               `json:"mode"`
	Distance    float64            `json:"distance"`  // km
	Emissions   float64            `json:"emissions"` // kg CO2
	Duration    float64            `json:"duration"`  // minutes
	Timestamp   time.Time          `json:"timestamp"`
	DayOfWeek   time.Weekday       `json:"dayOfWeek"`
	Hour        int                `json:"hour"`
	Weather     *LocalFactors      `json:"weather,omitempty"`
	Traffic     *TrafficConditions `json:"traffic,omitempty"`
}

// Validate enforces the hard preconditions of a journey record.
func (j JourneyPattern) Validate() error {
	if j.Mode == "" {
		return &InputError{Field: "mode", Reason: "must not be empty"}
	}
	if j.Distance < 0 {
		return &InputError{Field: "distance", Reason: fmt.Sprintf("must not be negative, got %v", j.Distance)}
	}
	if j.Hour < 0 || j.Hour > 23 {
		return &InputError{Field: "hour", Reason: fmt.Sprintf("%d out of range", j.Hour)}
	}
	return nil
}

// ModelMetadata describes one logical prediction task.
type ModelMetadata struct {
	Name        string    `json:"name"`
	Accuracy    float64   `json:"accuracy"`
	LastTrained time.Time `json:"lastTrained"`
	SampleSize  int       `json:"sampleSize"`
	Features    []string  `json:"features"`
}

// TrafficPrediction is the expected traffic for a route at a weekday and hour.
type TrafficPrediction struct {
	Hour               int             `json:"hour"`
	DayOfWeek          time.Weekday    `json:"dayOfWeek"`
	ExpectedCongestion CongestionLevel `json:"expectedCongestion"`
	CongestionScore    float64         `json:"congestionScore"`
	AverageSpeed       float64         `json:"averageSpeed"`
	Reliability        float64         `json:"reliability"`
}

// Savings compares a candidate against a baseline. Positive values are better.
type Savings struct {
	Emissions float64 `json:"emissions"` // kg CO2
	Time      float64 `json:"time"`      // minutes
	Cost      float64 `json:"cost"`
}

// OptimalRoute is a ranked trip candidate.
type OptimalRoute struct {
	Route              string    `json:"route"`
	Mode               Mode      `json:"mode"`
	DepartureTime      time.Time `json:"departureTime"`
	DistanceKm         float64   `json:"distanceKm"`
	PredictedEmissions float64   `json:"predictedEmissions"`
	PredictedDuration  float64   `json:"predictedDuration"` // minutes
	Confidence         float64   `json:"confidence"`
	Savings            Savings   `json:"savings"`
	Reasoning          string    `json:"reasoning"`
}
