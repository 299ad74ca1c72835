package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
	"github.com/kilianp07/carbontrip/infra/logger"
)

// InfluxConfig locates an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

// InfluxSink writes trip estimates and prediction activity to InfluxDB using
// the official client. Cache lookups are left to Prometheus.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.Timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEstimate writes a trip_estimate point.
func (s *InfluxSink) RecordEstimate(r coremetrics.EstimateRecord) error {
	p := write.NewPointWithMeasurement("trip_estimate").
		AddTag("mode", r.Mode).
		AddField("distance_km", round3(r.DistanceKm)).
		AddField("total_kg", round3(r.TotalKg)).
		AddField("confidence", r.Confidence).
		SetTime(r.Time)
	return s.write(p)
}

// RecordPrediction writes a prediction_query point.
func (s *InfluxSink) RecordPrediction(r coremetrics.PredictionRecord) error {
	p := write.NewPointWithMeasurement("prediction_query").
		AddTag("kind", r.Kind)
	if r.Mode != "" {
		p = p.AddTag("mode", r.Mode)
	}
	p = p.AddField("candidates", r.Candidates).SetTime(r.Time)
	return s.write(p)
}

// RecordRetrain writes a model_refresh point.
func (s *InfluxSink) RecordRetrain(r coremetrics.RetrainRecord) error {
	p := write.NewPointWithMeasurement("model_refresh").
		AddField("sample_size", r.SampleSize).
		SetTime(r.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
