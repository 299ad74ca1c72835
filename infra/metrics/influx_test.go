package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	srv    *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(b)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func (ls *lineServer) sink() *InfluxSink {
	return NewInfluxSink(InfluxConfig{URL: ls.srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordEstimate(t *testing.T) {
	ls := newLineServer(t)
	now := time.Now()
	require.NoError(t, ls.sink().RecordEstimate(coremetrics.EstimateRecord{
		Mode: "driving", DistanceKm: 12.34567, TotalKg: 2.5925, Confidence: 85, Time: now,
	}))
	exp := line(write.NewPointWithMeasurement("trip_estimate").
		AddTag("mode", "driving").
		AddField("distance_km", 12.346).
		AddField("total_kg", 2.593).
		AddField("confidence", 85.0).
		SetTime(now))
	assert.Equal(t, []string{exp}, ls.bodies)
}

func TestInfluxSink_RecordPredictionAndRetrain(t *testing.T) {
	ls := newLineServer(t)
	s := ls.sink()
	now := time.Now()
	require.NoError(t, s.RecordPrediction(coremetrics.PredictionRecord{Kind: "realtime", Candidates: 3, Time: now}))
	require.NoError(t, s.RecordRetrain(coremetrics.RetrainRecord{SampleSize: 200, Time: now}))

	exp1 := line(write.NewPointWithMeasurement("prediction_query").
		AddTag("kind", "realtime").
		AddField("candidates", 3).
		SetTime(now))
	exp2 := line(write.NewPointWithMeasurement("model_refresh").
		AddField("sample_size", 200).
		SetTime(now))
	assert.Equal(t, []string{exp1, exp2}, ls.bodies)
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called, "health endpoint not called")
}
