package conditions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconditions "github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/model"
)

func conditionsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/traffic", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "48.8566,2.3522", r.URL.Query().Get("origin"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"congestionLevel":"high","averageSpeed":22,"stopFrequency":3,"idleTime":0.3}`))
	})
	mux.HandleFunc("/local", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"altitude":120,"temperature":3,"humidity":80,"airQuality":40,"roadGrade":2}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var paris = model.Coordinates{Lat: 48.8566, Lon: 2.3522}

func TestHTTPSource(t *testing.T) {
	src := NewHTTPSource(conditionsServer(t).URL, time.Second)
	ctx := context.Background()

	tc, err := src.Traffic(ctx, paris, paris)
	require.NoError(t, err)
	assert.Equal(t, model.TrafficConditions{CongestionLevel: model.CongestionHigh, AverageSpeed: 22, StopFrequency: 3, IdleTime: 0.3}, tc)

	lf, err := src.Local(ctx, paris)
	require.NoError(t, err)
	assert.Equal(t, 3.0, lf.Temperature)
	assert.Equal(t, 2.0, lf.RoadGrade)
}

func TestHTTPSourceErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	_, err := src.Traffic(context.Background(), paris, paris)
	require.ErrorContains(t, err, "status 502")

	fb := coreconditions.FallbackTraffic{
		Primary:  src,
		Fallback: coreconditions.SynthTraffic{Rand: func() float64 { return 0 }},
	}
	tc, err := fb.Traffic(context.Background(), paris, paris)
	require.NoError(t, err)
	assert.NotEmpty(t, tc.CongestionLevel)
}

type staticToken string

func (s staticToken) SetAuthHeader(r *http.Request) error {
	r.Header.Set("Authorization", "Bearer "+string(s))
	return nil
}

func TestHTTPSourceSendsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"temperature":12}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	_, err := src.Local(context.Background(), paris)
	require.ErrorContains(t, err, "status 401")

	src.Auth = staticToken("secret")
	lf, err := src.Local(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, 12.0, lf.Temperature)
}

func TestHTTPSourceRejectsEmptyTraffic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewHTTPSource(srv.URL, 0).Traffic(context.Background(), paris, paris)
	assert.Error(t, err)
}
