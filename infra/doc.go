// Package infra contains technical adapters such as journal stores, metrics
// sinks, tracing and the HTTP conditions client. These packages should depend
// only on the interfaces defined in the core packages.
package infra
