package metrics

import (
	"context"

	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/logger"
	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
	"github.com/kilianp07/carbontrip/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// engine events. It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) {
	if bus == nil || sink == nil {
		return
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.EstimateComputed:
		return sink.RecordEstimate(coremetrics.EstimateRecord{
			Mode:       e.Mode.String(),
			DistanceKm: e.DistanceKm,
			TotalKg:    e.TotalKg,
			Confidence: e.Confidence,
			Time:       e.Time,
		})
	case events.CacheLookup:
		if r, ok := sink.(coremetrics.CacheRecorder); ok {
			return r.RecordCacheLookup(coremetrics.CacheLookupRecord{Cache: e.Cache, Hit: e.Hit})
		}
	case events.PredictionServed:
		if r, ok := sink.(coremetrics.PredictionRecorder); ok {
			return r.RecordPrediction(coremetrics.PredictionRecord{
				Kind:       e.Kind,
				Mode:       e.Mode.String(),
				Candidates: e.Candidates,
				Time:       e.Time,
			})
		}
	case events.ModelRetrained:
		if r, ok := sink.(coremetrics.RetrainRecorder); ok {
			return r.RecordRetrain(coremetrics.RetrainRecord{SampleSize: e.SampleSize, Time: e.Time})
		}
	}
	return nil
}
