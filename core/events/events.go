package events

import (
	"time"

	"github.com/kilianp07/carbontrip/core/model"
)

// EstimateComputed is published after every successful Calculate call.
type EstimateComputed struct {
	Mode       model.Mode
	DistanceKm float64
	TotalKg    float64
	Confidence float64
	Time       time.Time
}

// Cache names used in CacheLookup.
const (
	CacheTraffic    = "traffic"
	CacheLocal      = "local"
	CachePrediction = "traffic_prediction"
)

// CacheLookup is published for each read-through cache access.
type CacheLookup struct {
	Cache string
	Hit   bool
}

// Prediction kinds used in PredictionServed.
const (
	KindDeparture    = "departure"
	KindOutcome      = "outcome"
	KindAlternatives = "alternatives"
	KindRealTime     = "realtime"
)

// PredictionServed is published when a prediction query completes.
type PredictionServed struct {
	Kind       string
	Mode       model.Mode
	Candidates int
	Time       time.Time
}

// ModelRetrained is published when model metadata is swapped.
type ModelRetrained struct {
	SampleSize int
	Time       time.Time
}

// Publisher is the subset of the event bus the engines need.
type Publisher interface {
	Publish(any)
}
