package prediction

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/logger"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/cache"
	"github.com/kilianp07/carbontrip/internal/clock"
)

var tracer = otel.Tracer("github.com/kilianp07/carbontrip/core/prediction")

// Model names.
const (
	ModelDepartureTime = "departure_time"
	ModelTraffic       = "traffic"
	ModelModeChoice    = "mode_choice"
)

// DefaultRetrainInterval is the number of ingested journeys between two
// metadata refreshes.
const DefaultRetrainInterval = 100

// Options configures an Engine. Zero values select the default factor
// registry, the stub distance provider, an unbounded prediction cache and an
// unbounded journey log.
type Options struct {
	Registry        *emission.Registry
	Distance        DistanceProvider
	PredictionCache cache.Options
	RetrainInterval int
	MaxJourneys     int
	Clock           clock.Clock
	Rand            func() float64
	Log             logger.Logger
	Events          events.Publisher
}

// Engine answers departure, alternative and real-time routing queries from
// the journeys it has ingested. It is safe for concurrent use.
type Engine struct {
	registry        *emission.Registry
	distance        DistanceProvider
	predictions     *cache.ReadThrough[model.TrafficPrediction]
	retrainInterval int
	maxJourneys     int
	clock           clock.Clock
	rand            func() float64
	log             logger.Logger
	events          events.Publisher

	mu       sync.RWMutex
	journeys []model.JourneyPattern
	ingested atomic.Int64
	models   atomic.Pointer[map[string]model.ModelMetadata]
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	e := &Engine{
		registry:        opts.Registry,
		distance:        opts.Distance,
		predictions:     cache.New[model.TrafficPrediction](opts.PredictionCache),
		retrainInterval: opts.RetrainInterval,
		maxJourneys:     opts.MaxJourneys,
		clock:           clock.Or(opts.Clock),
		rand:            opts.Rand,
		log:             logger.OrNop(opts.Log),
		events:          opts.Events,
	}
	if e.registry == nil {
		e.registry = emission.DefaultRegistry()
	}
	if e.distance == nil {
		e.distance = StubDistance{Rand: opts.Rand}
	}
	if e.retrainInterval <= 0 {
		e.retrainInterval = DefaultRetrainInterval
	}
	if e.rand == nil {
		e.rand = rand.Float64
	}
	initial := initialModels(e.clock.Now())
	e.models.Store(&initial)
	return e
}

func initialModels(now time.Time) map[string]model.ModelMetadata {
	return map[string]model.ModelMetadata{
		ModelDepartureTime: {
			Name:        ModelDepartureTime,
			Accuracy:    0.75,
			LastTrained: now,
			Features:    []string{"hour", "dayOfWeek", "route", "mode"},
		},
		ModelTraffic: {
			Name:        ModelTraffic,
			Accuracy:    0.7,
			LastTrained: now,
			Features:    []string{"hour", "dayOfWeek", "season", "events"},
		},
		ModelModeChoice: {
			Name:        ModelModeChoice,
			Accuracy:    0.8,
			LastTrained: now,
			Features:    []string{"distance", "mode", "emissions", "duration"},
		},
	}
}

// AddJourneyData appends a journey to the log. An empty ID is replaced with
// a random UUID, a zero Timestamp with the current time, and DayOfWeek and
// Hour are always derived from the Timestamp.
func (e *Engine) AddJourneyData(ctx context.Context, j model.JourneyPattern) error {
	_, span := tracer.Start(ctx, "prediction.AddJourneyData")
	defer span.End()

	if m, _, ok := model.ParseMode(string(j.Mode)); ok {
		j.Mode = m
	} else if j.Mode != "" {
		e.log.Warnf("journey with unknown transport mode %q", j.Mode)
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = e.clock.Now()
	}
	j.DayOfWeek = j.Timestamp.Weekday()
	j.Hour = j.Timestamp.Hour()
	if err := j.Validate(); err != nil {
		span.RecordError(err)
		return err
	}

	e.mu.Lock()
	e.journeys = append(e.journeys, j)
	if e.maxJourneys > 0 && len(e.journeys) > e.maxJourneys {
		over := len(e.journeys) - e.maxJourneys
		n := copy(e.journeys, e.journeys[over:])
		clear(e.journeys[n:])
		e.journeys = e.journeys[:n]
	}
	size := len(e.journeys)
	e.mu.Unlock()

	if e.ingested.Add(1)%int64(e.retrainInterval) == 0 {
		e.retrain(size)
	}
	return nil
}

// retrain refreshes the metadata of every model. It does not fit anything.
func (e *Engine) retrain(sampleSize int) {
	now := e.clock.Now()
	prev := *e.models.Load()
	next := make(map[string]model.ModelMetadata, len(prev))
	for name, m := range prev {
		m.LastTrained = now
		m.SampleSize = sampleSize
		m.Features = slices.Clone(m.Features)
		next[name] = m
	}
	e.models.Store(&next)
	e.log.Infof("model metadata refreshed with %d journeys", sampleSize)
	e.publish(events.ModelRetrained{SampleSize: sampleSize, Time: now})
}

// Models returns a copy of the current model metadata keyed by name.
func (e *Engine) Models() map[string]model.ModelMetadata {
	cur := *e.models.Load()
	out := make(map[string]model.ModelMetadata, len(cur))
	for k, v := range cur {
		v.Features = slices.Clone(v.Features)
		out[k] = v
	}
	return out
}

// JourneyCount returns the number of journeys currently held.
func (e *Engine) JourneyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.journeys)
}

// Journeys returns a snapshot of the journey log, oldest first.
func (e *Engine) Journeys() []model.JourneyPattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.journeys)
}

func (e *Engine) publish(ev any) {
	if e.events != nil {
		e.events.Publish(ev)
	}
}

func (e *Engine) served(kind string, mode model.Mode, n int) {
	e.publish(events.PredictionServed{Kind: kind, Mode: mode, Candidates: n, Time: e.clock.Now()})
}
