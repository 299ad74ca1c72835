package emission

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/logger"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/cache"
	"github.com/kilianp07/carbontrip/internal/clock"
)

var tracer = otel.Tracer("github.com/kilianp07/carbontrip/core/emission")

// Options configures an Engine. Zero values select the synthesized sources,
// unbounded caches, a no-op logger and no event publication.
type Options struct {
	Registry     *Registry
	Traffic      conditions.TrafficSource
	Local        conditions.LocalSource
	TrafficCache cache.Options
	LocalCache   cache.Options
	Clock        clock.Clock
	Log          logger.Logger
	Events       events.Publisher
}

// Engine computes trip emissions. It is safe for concurrent use; construct
// one per process (or per tenant) and share it.
type Engine struct {
	registry     *Registry
	traffic      conditions.TrafficSource
	local        conditions.LocalSource
	trafficCache *cache.ReadThrough[model.TrafficConditions]
	localCache   *cache.ReadThrough[model.LocalFactors]
	clock        clock.Clock
	log          logger.Logger
	events       events.Publisher
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	e := &Engine{
		registry:     opts.Registry,
		traffic:      opts.Traffic,
		local:        opts.Local,
		trafficCache: cache.New[model.TrafficConditions](opts.TrafficCache),
		localCache:   cache.New[model.LocalFactors](opts.LocalCache),
		clock:        clock.Or(opts.Clock),
		log:          logger.OrNop(opts.Log),
		events:       opts.Events,
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.traffic == nil {
		e.traffic = conditions.SynthTraffic{Clock: e.clock}
	}
	if e.local == nil {
		e.local = conditions.SynthLocal{}
	}
	return e
}

// Registry exposes the factor tables used by the engine.
func (e *Engine) Registry() *Registry { return e.registry }

// Request describes one trip. Only Mode and DistanceKm are required.
type Request struct {
	Mode        string
	DistanceKm  float64
	Vehicle     *model.VehicleSpec
	Traffic     *model.TrafficConditions
	Local       *model.LocalFactors
	Hour        *int
	Origin      *model.Coordinates
	Destination *model.Coordinates
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Mode) == "" {
		return &model.InputError{Field: "mode", Reason: "must not be empty"}
	}
	if r.DistanceKm < 0 || math.IsNaN(r.DistanceKm) || math.IsInf(r.DistanceKm, 0) {
		return &model.InputError{Field: "distance", Reason: fmt.Sprintf("must be a non-negative number, got %v", r.DistanceKm)}
	}
	if r.Hour != nil && (*r.Hour < 0 || *r.Hour > 23) {
		return &model.InputError{Field: "hour", Reason: fmt.Sprintf("%d out of range", *r.Hour)}
	}
	if r.Vehicle != nil {
		if err := r.Vehicle.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Calculate estimates the emissions of a trip:
//
//	total = base(mode, vehicle) × distance × traffic × environment × vehicle
//
// Missing optional context is defaulted. When Traffic or Local is absent but
// coordinates are present, conditions are read through the engine caches.
// Only violated preconditions return an error.
func (e *Engine) Calculate(ctx context.Context, req Request) (model.EmissionResult, error) {
	ctx, span := tracer.Start(ctx, "emission.Calculate")
	defer span.End()

	if err := req.validate(); err != nil {
		span.RecordError(err)
		return model.EmissionResult{}, err
	}
	mode, sub, ok := model.ParseMode(req.Mode)
	if !ok {
		e.log.Warnf("unknown transport mode %q, using the driving default of %.2f kg/km", req.Mode, GlobalDefault)
		mode = model.ModeDriving
	}
	span.SetAttributes(attribute.String("mode", string(mode)), attribute.Float64("distance_km", req.DistanceKm))

	tc := req.Traffic
	if tc == nil && req.Origin != nil && req.Destination != nil {
		if v, err := e.TrafficConditions(ctx, *req.Origin, *req.Destination); err == nil {
			tc = &v
		} else {
			e.log.Warnf("traffic lookup: %v", err)
		}
	}
	lf := req.Local
	if lf == nil && req.Origin != nil {
		if v, err := e.LocalFactors(ctx, *req.Origin); err == nil {
			lf = &v
		} else {
			e.log.Warnf("local factors lookup: %v", err)
		}
	}

	entry := Entry{Rate: GlobalDefault}
	if ok {
		entry = e.registry.Lookup(mode, sub, req.Vehicle)
	}
	trafficM := TrafficMultiplier(tc, req.Hour)
	envM := EnvironmentMultiplier(lf)
	vehicleM := 1.0
	if mode == model.ModeDriving {
		vehicleM = VehicleMultiplier(entry, req.Vehicle)
	}

	total := entry.Rate * req.DistanceKm * trafficM * envM * vehicleM
	res := model.EmissionResult{
		TotalEmissions: total,
		Breakdown:      Breakdown(total, mode, req.Vehicle),
		Confidence:     Confidence(req.Vehicle != nil, tc != nil, lf != nil),
		Factors: model.Factors{
			Traffic: trafficM,
			Weather: envM,
			Vehicle: vehicleM,
			Route:   entry.Rate,
		},
		Recommendations: recommendations(total, req.DistanceKm, mode, req.Vehicle, tc),
	}
	span.SetAttributes(attribute.Float64("total_kg", total))
	e.log.Debugw("emission estimate", map[string]any{
		"mode": mode, "distance_km": req.DistanceKm, "total_kg": total, "confidence": res.Confidence,
	})
	e.publish(events.EstimateComputed{
		Mode:       mode,
		DistanceKm: req.DistanceKm,
		TotalKg:    total,
		Confidence: res.Confidence,
		Time:       e.clock.Now(),
	})
	return res, nil
}

// TrafficConditions returns the traffic between two points, computing it on
// the first request for the coordinate pair.
func (e *Engine) TrafficConditions(ctx context.Context, origin, destination model.Coordinates) (model.TrafficConditions, error) {
	key := origin.Key() + "|" + destination.Key()
	tc, hit, err := e.trafficCache.Get(ctx, key, func(ctx context.Context) (model.TrafficConditions, error) {
		return e.traffic.Traffic(ctx, origin, destination)
	})
	if err != nil {
		return model.TrafficConditions{}, fmt.Errorf("traffic %s: %w", key, err)
	}
	e.publish(events.CacheLookup{Cache: events.CacheTraffic, Hit: hit})
	return tc, nil
}

// LocalFactors returns the environment at a point, computing it on the first
// request for the coordinates.
func (e *Engine) LocalFactors(ctx context.Context, at model.Coordinates) (model.LocalFactors, error) {
	key := at.Key()
	lf, hit, err := e.localCache.Get(ctx, key, func(ctx context.Context) (model.LocalFactors, error) {
		return e.local.Local(ctx, at)
	})
	if err != nil {
		return model.LocalFactors{}, fmt.Errorf("local factors %s: %w", key, err)
	}
	e.publish(events.CacheLookup{Cache: events.CacheLocal, Hit: hit})
	return lf, nil
}

func (e *Engine) publish(ev any) {
	if e.events != nil {
		e.events.Publish(ev)
	}
}
