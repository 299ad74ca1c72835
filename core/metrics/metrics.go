package metrics

import "time"

// EstimateRecord is one computed trip emission estimate.
type EstimateRecord struct {
	Mode       string
	DistanceKm float64
	TotalKg    float64
	Confidence float64
	Time       time.Time
}

// MetricsSink records trip estimates for observability purposes.
type MetricsSink interface {
	RecordEstimate(rec EstimateRecord) error
}

// CacheLookupRecord is one read-through cache access.
type CacheLookupRecord struct {
	Cache string
	Hit   bool
	Time  time.Time
}

// CacheRecorder records cache hits and misses.
type CacheRecorder interface {
	RecordCacheLookup(rec CacheLookupRecord) error
}

// PredictionRecord is one served prediction query.
type PredictionRecord struct {
	Kind       string
	Mode       string
	Candidates int
	Time       time.Time
}

// PredictionRecorder records prediction queries.
type PredictionRecorder interface {
	RecordPrediction(rec PredictionRecord) error
}

// RetrainRecord is a model metadata refresh.
type RetrainRecord struct {
	SampleSize int
	Time       time.Time
}

// RetrainRecorder records model metadata refreshes.
type RetrainRecorder interface {
	RecordRetrain(rec RetrainRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEstimate(EstimateRecord) error       { return nil }
func (NopSink) RecordCacheLookup(CacheLookupRecord) error { return nil }
func (NopSink) RecordPrediction(PredictionRecord) error   { return nil }
func (NopSink) RecordRetrain(RetrainRecord) error         { return nil }
