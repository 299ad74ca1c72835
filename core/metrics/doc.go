// Package metrics defines the sinks that record trip estimates, cache
// lookups, prediction queries and model refreshes. Sinks like PromSink and
// InfluxSink live in infra/metrics and register themselves in the sink
// factory; NewMetricsSink combines several configured sinks into a MultiSink.
package metrics
