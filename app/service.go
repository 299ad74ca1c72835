// Package app assembles the engines, the journal and the observability stack
// from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kilianp07/carbontrip/api"
	"github.com/kilianp07/carbontrip/api/journeys"
	"github.com/kilianp07/carbontrip/api/trips"
	"github.com/kilianp07/carbontrip/auth"
	"github.com/kilianp07/carbontrip/config"
	"github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/journal"
	coremetrics "github.com/kilianp07/carbontrip/core/metrics"
	"github.com/kilianp07/carbontrip/core/model"
	coremon "github.com/kilianp07/carbontrip/core/monitoring"
	"github.com/kilianp07/carbontrip/core/prediction"
	infraconditions "github.com/kilianp07/carbontrip/infra/conditions"
	_ "github.com/kilianp07/carbontrip/infra/journal" // jsonl and sqlite stores
	"github.com/kilianp07/carbontrip/infra/logger"
	"github.com/kilianp07/carbontrip/infra/metrics"
	"github.com/kilianp07/carbontrip/infra/monitoring"
	"github.com/kilianp07/carbontrip/infra/tracing"
	"github.com/kilianp07/carbontrip/internal/eventbus"
	"github.com/kilianp07/carbontrip/jobs/replay"
)

// Version is reported in trace resources.
var Version = "dev"

// Service holds the wired components.
type Service struct {
	Emission   *emission.Engine
	Prediction *prediction.Engine
	Journal    journal.Store

	cfg     *config.Config
	bus     *eventbus.Bus
	sink    coremetrics.MetricsSink
	monitor coremon.Monitor
	log     logger.Logger
	tracing tracing.Shutdown
	stop    context.CancelFunc
}

// New creates a Service from the configuration. When the journal is set to
// replay on start, stored journeys are loaded into the prediction engine
// before New returns.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	shutdown, err := tracing.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	bus := eventbus.New()
	collectCtx, stop := context.WithCancel(context.Background())
	metrics.StartEventCollector(collectCtx, bus, sink, logger.New("metrics"))

	traffic, local := conditionSources(cfg.Providers)
	registry := emission.DefaultRegistry()
	em := emission.New(emission.Options{
		Registry:     registry,
		Traffic:      traffic,
		Local:        local,
		TrafficCache: cfg.Emission.TrafficCache,
		LocalCache:   cfg.Emission.LocalCache,
		Log:          logger.New("emission"),
		Events:       bus,
	})

	var distance prediction.DistanceProvider = prediction.HaversineDistance{}
	if cfg.Prediction.Distance == config.DistanceStub {
		distance = prediction.StubDistance{}
	}
	pred := prediction.New(prediction.Options{
		Registry:        registry,
		Distance:        distance,
		PredictionCache: cfg.Prediction.Cache,
		RetrainInterval: cfg.Prediction.RetrainInterval,
		MaxJourneys:     cfg.Prediction.MaxJourneys,
		Log:             logger.New("prediction"),
		Events:          bus,
	})

	store, err := journal.NewStore(cfg.Journal.Store)
	if err != nil {
		stop()
		bus.Close()
		_ = shutdown(ctx)
		return nil, fmt.Errorf("journal: %w", err)
	}

	svc := &Service{
		Emission:   em,
		Prediction: pred,
		Journal:    store,
		cfg:        cfg,
		bus:        bus,
		sink:       sink,
		monitor:    monitor,
		log:        logg,
		tracing:    shutdown,
		stop:       stop,
	}
	if cfg.Journal.ReplayOnStart {
		if _, err := replay.Replay(ctx, store, journal.Query{}, pred, logger.New("replay")); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("replay journal: %w", err)
		}
	}
	return svc, nil
}

// conditionSources returns the synthesizers, guarded behind the HTTP
// conditions service when one is configured.
func conditionSources(cfg config.ProvidersConfig) (conditions.TrafficSource, conditions.LocalSource) {
	var (
		traffic conditions.TrafficSource = conditions.SynthTraffic{}
		local   conditions.LocalSource   = conditions.SynthLocal{}
	)
	if cfg.URL == "" {
		return traffic, local
	}
	src := infraconditions.NewHTTPSource(cfg.URL, cfg.Timeout)
	if cfg.Auth.Enabled() {
		src.Auth = auth.NewClientCred(cfg.Auth)
	}
	guard := conditions.Guard{
		Timeout: cfg.Timeout,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		Log:     logger.New("conditions"),
	}
	return conditions.FallbackTraffic{Primary: src, Fallback: traffic, Guard: guard},
		conditions.FallbackLocal{Primary: src, Fallback: local, Guard: guard}
}

// RecordJourney persists j, then feeds it to the prediction engine. The mode,
// ID and timestamp are normalized here so both copies agree.
func (s *Service) RecordJourney(ctx context.Context, j model.JourneyPattern) (model.JourneyPattern, error) {
	if m, _, ok := model.ParseMode(string(j.Mode)); ok {
		j.Mode = m
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = time.Now()
	}
	j.DayOfWeek = j.Timestamp.Weekday()
	j.Hour = j.Timestamp.Hour()
	if err := j.Validate(); err != nil {
		return j, err
	}
	// The engine must not hold a journey the journal lacks.
	if err := s.Journal.Append(ctx, j); err != nil {
		return j, fmt.Errorf("journal append: %w", err)
	}
	if err := s.Prediction.AddJourneyData(ctx, j); err != nil {
		return j, err
	}
	return j, nil
}

// Handler returns the HTTP API: /api/journeys and /api/trips/.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/journeys", journeys.NewHandler(s.Journal, s, s.monitor))
	mux.Handle("/api/trips/", trips.NewHandler(s.Emission, s.Prediction, s.monitor))
	return api.RequireBearer(s.cfg.API.Token, mux)
}

// Run serves /metrics when metrics.listen is set and the HTTP API when
// api.listen is set, and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if addr := s.cfg.Metrics.Listen; addr != "" {
		g.Go(func() error {
			defer s.monitor.Recover()
			return metrics.StartPromServer(ctx, addr, nil, logger.New("metrics-server"))
		})
	}
	if addr := s.cfg.API.Listen; addr != "" {
		g.Go(func() error {
			defer s.monitor.Recover()
			return s.serveAPI(ctx, addr)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	if err := g.Wait(); err != nil {
		s.monitor.CaptureException(err, map[string]string{"component": "service"})
		return err
	}
	return nil
}

func (s *Service) serveAPI(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api server shutdown: %v", err)
		}
	}()
	s.log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.stop()
	s.bus.Close()
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("event bus dropped %d events; metrics undercount", n)
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return errors.Join(s.Journal.Close(), s.tracing(context.Background()))
}
