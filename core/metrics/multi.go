package metrics

import "errors"

// MultiSink fans records out to multiple sinks. Optional recorders are only
// forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEstimate forwards the record to all sinks and joins their errors.
func (m *MultiSink) RecordEstimate(rec EstimateRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordEstimate(rec))
	}
	return errors.Join(errs...)
}

// RecordCacheLookup forwards cache lookups.
func (m *MultiSink) RecordCacheLookup(rec CacheLookupRecord) error {
	return forward(m.Sinks, func(r CacheRecorder) error { return r.RecordCacheLookup(rec) })
}

// RecordPrediction forwards prediction queries.
func (m *MultiSink) RecordPrediction(rec PredictionRecord) error {
	return forward(m.Sinks, func(r PredictionRecorder) error { return r.RecordPrediction(rec) })
}

// RecordRetrain forwards metadata refreshes.
func (m *MultiSink) RecordRetrain(rec RetrainRecord) error {
	return forward(m.Sinks, func(r RetrainRecorder) error { return r.RecordRetrain(rec) })
}

func forward[R any](sinks []MetricsSink, call func(R) error) error {
	var errs []error
	for _, s := range sinks {
		if r, ok := s.(R); ok {
			errs = append(errs, call(r))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that has a Close method.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
