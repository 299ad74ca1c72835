// Package prediction learns from trip history to suggest departure times and
// transport modes that minimise emissions.
//
// The engine keeps an in-memory journey log and a cache of traffic
// predictions. Predictions never fail on sparse history: confidence and
// reliability floors communicate the uncertainty instead.
//
// Model "retraining" is a metadata refresh only. Every RetrainInterval
// ingested journeys the per-model metadata is swapped with an updated sample
// size and training time; no parameter is estimated.
package prediction
