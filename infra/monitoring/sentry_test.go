package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/carbontrip/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
	m.CaptureException(errors.New("ignored"), nil)
	m.Flush(time.Millisecond)
}

func TestNewSentryMonitorRejectsBadDSN(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCaptures(t *testing.T) {
	m, err := NewSentryMonitor(Config{DSN: "https://public@127.0.0.1:1/1", Environment: "test"})
	require.NoError(t, err)
	m.CaptureException(errors.New("boom"), map[string]string{"component": "api"})
	m.CaptureException(nil, nil)
	m.Flush(10 * time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{TracesSampleRate: 0.5}.Validate())
	assert.Error(t, Config{TracesSampleRate: 2}.Validate())
}
