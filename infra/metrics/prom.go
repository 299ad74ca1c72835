package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
)

// PromSink records estimates, cache lookups and prediction queries in
// Prometheus metrics.
type PromSink struct {
	estimates   *prometheus.CounterVec
	emissions   *prometheus.HistogramVec
	cache       *prometheus.CounterVec
	predictions *prometheus.CounterVec
	refreshes   prometheus.Counter
	samples     prometheus.Gauge
}

// NewPromSink registers the trip metrics on reg. A nil registerer defaults
// to the global Prometheus registerer. Metrics already registered by another
// sink are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.estimates, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_estimates_total",
		Help: "Total number of trip emission estimates",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.emissions, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trip_emissions_kg",
		Help:    "Estimated CO2 emissions per trip",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.cache, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "condition_cache_lookups_total",
		Help: "Read-through cache lookups by cache and result",
	}, []string{"cache", "result"})); err != nil {
		return nil, err
	}
	if s.predictions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_queries_total",
		Help: "Prediction queries served by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.refreshes, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "model_metadata_refresh_total",
		Help: "Number of model metadata refreshes",
	})); err != nil {
		return nil, err
	}
	if s.samples, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_sample_size",
		Help: "Journeys held at the last metadata refresh",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEstimate counts the estimate and observes its emissions.
func (s *PromSink) RecordEstimate(r coremetrics.EstimateRecord) error {
	s.estimates.WithLabelValues(r.Mode).Inc()
	s.emissions.WithLabelValues(r.Mode).Observe(r.TotalKg)
	return nil
}

// RecordCacheLookup counts a hit or a miss.
func (s *PromSink) RecordCacheLookup(r coremetrics.CacheLookupRecord) error {
	result := "miss"
	if r.Hit {
		result = "hit"
	}
	s.cache.WithLabelValues(r.Cache, result).Inc()
	return nil
}

// RecordPrediction counts a served query.
func (s *PromSink) RecordPrediction(r coremetrics.PredictionRecord) error {
	s.predictions.WithLabelValues(r.Kind).Inc()
	return nil
}

// RecordRetrain counts a refresh and exposes its sample size.
func (s *PromSink) RecordRetrain(r coremetrics.RetrainRecord) error {
	s.refreshes.Inc()
	s.samples.Set(float64(r.SampleSize))
	return nil
}
