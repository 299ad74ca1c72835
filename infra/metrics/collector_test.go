package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/carbontrip/core/events"
	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/eventbus"
)

type countingSink struct {
	mu                                     sync.Mutex
	estimates, lookups, predictions, fresh int
}

func (c *countingSink) RecordEstimate(coremetrics.EstimateRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estimates++
	return nil
}

func (c *countingSink) RecordCacheLookup(coremetrics.CacheLookupRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	return nil
}

func (c *countingSink) RecordPrediction(coremetrics.PredictionRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictions++
	return nil
}

func (c *countingSink) RecordRetrain(coremetrics.RetrainRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh++
	return nil
}

func (c *countingSink) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimates + c.lookups + c.predictions + c.fresh
}

func TestEventCollectorForwardsEngineEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &countingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink, nil)

	bus.Publish(events.EstimateComputed{Mode: model.ModeDriving, TotalKg: 2})
	bus.Publish(events.CacheLookup{Cache: events.CacheTraffic, Hit: true})
	bus.Publish(events.PredictionServed{Kind: events.KindDeparture, Candidates: 5})
	bus.Publish(events.ModelRetrained{SampleSize: 100})
	bus.Publish("ignored")

	assert.Eventually(t, func() bool { return sink.total() == 4 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, sink.estimates)
	assert.Equal(t, 1, sink.lookups)
}
