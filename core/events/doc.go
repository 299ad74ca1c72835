// Package events defines the events emitted by the emission and prediction
// engines on the event bus.
//
// Available event types:
//   - EstimateComputed: a trip estimate was produced
//   - CacheLookup: a read-through cache was consulted
//   - PredictionServed: a prediction query returned candidates
//   - ModelRetrained: prediction model metadata was refreshed
package events
