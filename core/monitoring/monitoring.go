// Package monitoring defines the error reporting hook used by the service
// and the HTTP API.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred directly; it reports and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}
