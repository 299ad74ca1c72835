package trips

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/core/prediction"
	"github.com/kilianp07/carbontrip/internal/clock"
)

func newTestHandler() http.Handler {
	clk := clock.NewFixed(time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC))
	pred := prediction.New(prediction.Options{
		Distance: prediction.FixedDistance(5),
		Clock:    clk,
		Rand:     func() float64 { return 0.5 },
	})
	return NewHandler(emission.New(emission.Options{Clock: clk}), pred, nil)
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
	}
	return rr.Code
}

func TestEstimateEndpoint(t *testing.T) {
	h := newTestHandler()
	var res model.EmissionResult
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/estimate?mode=car&distance=100&fuel=gasoline&hour=12", &res))
	assert.InDelta(t, 21.0, res.TotalEmissions, 1e-9)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/estimate?mode=car&distance=-5", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/estimate?mode=car", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/estimate?mode=car&distance=3&origin=1,2&destination=x", nil))
}

func TestEstimateEndpointDepartureTime(t *testing.T) {
	h := newTestHandler()
	var clock, bare model.EmissionResult
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/estimate?mode=driving&distance=10&hour=08:30", &clock))
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/estimate?mode=driving&distance=10&hour=8", &bare))
	assert.Equal(t, bare.TotalEmissions, clock.TotalEmissions)
	assert.Equal(t, bare.Factors.Traffic, clock.Factors.Traffic)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/estimate?mode=driving&distance=10&hour=25:00", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/estimate?mode=driving&distance=10&hour=noon", nil))
}

func TestPredictionEndpoints(t *testing.T) {
	h := newTestHandler()

	var deps []model.OptimalRoute
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/departures?from=home&to=work&mode=driving&at=2025-04-16T00:00:00Z", &deps))
	assert.Len(t, deps, 5)

	var alts []model.OptimalRoute
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/alternatives?from=home&to=work&mode=driving", &alts))
	require.Len(t, alts, 3)
	assert.NotEqual(t, model.ModeDriving, alts[0].Mode)

	var opt []model.OptimalRoute
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/optimize?from=home&to=work&exclude=bike,walking", &opt))
	for _, r := range opt {
		assert.NotContains(t, []model.Mode{model.ModeCycling, model.ModeWalking}, r.Mode)
	}

	var tp model.TrafficPrediction
	require.Equal(t, http.StatusOK, get(t, h, "/api/trips/traffic?from=home&to=work&at=2025-04-16T23:00:00Z", &tp))
	assert.Equal(t, 23, tp.Hour)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/optimize?from=home", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/optimize?from=a&to=b&exclude=hovercraft", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/trips/departures?from=a&to=b&at=noon", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/trips/estimate", nil))
		return rr.Code
	}())
}
