package prediction

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/model"
)

// CanonicalHours are the departure hours evaluated by
// PredictOptimalDepartureTimes.
var CanonicalHours = []int{6, 7, 8, 9, 12, 13, 17, 18, 19, 20}

const maxDepartureResults = 5

// km/h; driving uses the predicted traffic speed.
var modalSpeed = map[model.Mode]float64{
	model.ModeTransit: 25,
	model.ModeCycling: 15,
	model.ModeWalking: 5,
}

// flat cost per km
var costPerKm = map[model.Mode]float64{
	model.ModeDriving: 0.25,
	model.ModeTransit: 0.12,
	model.ModeCycling: 0.02,
	model.ModeWalking: 0,
}

// Preferences tunes OptimizeRouteRealTime. A zero DepartureTime means now.
type Preferences struct {
	DepartureTime time.Time
	ExcludeModes  []model.Mode
}

// query carries what is resolved once per prediction request.
type query struct {
	origin      string
	destination string
	distance    float64
	similar     []model.JourneyPattern
}

func (q query) route() string { return RouteKey(q.origin, q.destination) }

func (e *Engine) newQuery(ctx context.Context, origin, destination string) (query, error) {
	d, err := e.distance.Distance(ctx, origin, destination)
	if err != nil {
		return query{}, fmt.Errorf("distance %s: %w", RouteKey(origin, destination), err)
	}
	if d < 0 || math.IsNaN(d) {
		return query{}, &model.InputError{Field: "distance", Reason: fmt.Sprintf("provider returned %v", d)}
	}
	e.mu.RLock()
	similar := similarJourneys(e.journeys, origin, destination)
	e.mu.RUnlock()
	return query{origin: origin, destination: destination, distance: d, similar: similar}, nil
}

func (e *Engine) parseMode(s string) (model.Mode, model.TransitSubtype) {
	m, sub, ok := model.ParseMode(s)
	if !ok {
		e.log.Warnf("unknown transport mode %q, predicting for driving", s)
		return model.ModeDriving, ""
	}
	return m, sub
}

func (e *Engine) dateOr(t time.Time) time.Time {
	if t.IsZero() {
		return e.clock.Now()
	}
	return t
}

func atHour(date time.Time, hour int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, date.Location())
}

// outcome predicts one candidate. Savings are left zero.
func (e *Engine) outcome(ctx context.Context, q query, mode model.Mode, sub model.TransitSubtype, at time.Time) model.OptimalRoute {
	tp := e.PredictTrafficConditions(ctx, q.route(), at)
	rate := e.registry.Lookup(mode, sub, nil).Rate
	emissions := rate * q.distance * emission.CongestionStep(tp.ExpectedCongestion)

	speed := modalSpeed[mode]
	if mode == model.ModeDriving {
		speed = tp.AverageSpeed
	}
	var duration float64
	if speed > 0 {
		duration = q.distance / speed * 60
	}

	matches := 0
	for _, j := range q.similar {
		if j.Mode == mode && j.Hour == at.Hour() {
			matches++
		}
	}
	return model.OptimalRoute{
		Route:              fmt.Sprintf("%s to %s", q.origin, q.destination),
		Mode:               mode,
		DepartureTime:      at,
		DistanceKm:         q.distance,
		PredictedEmissions: emissions,
		PredictedDuration:  duration,
		Confidence:         min(95, 40+5*float64(matches)),
		Reasoning: fmt.Sprintf("%s congestion expected at %02d:00; %s over %.1f km is predicted to emit %.2f kg CO2.",
			tp.ExpectedCongestion, at.Hour(), mode, q.distance, emissions),
	}
}

func savingsAgainst(baseline, c model.OptimalRoute) model.Savings {
	return model.Savings{
		Emissions: baseline.PredictedEmissions - c.PredictedEmissions,
		Time:      baseline.PredictedDuration - c.PredictedDuration,
		Cost:      (costPerKm[baseline.Mode] - costPerKm[c.Mode]) * c.DistanceKm,
	}
}

// PredictJourneyOutcome predicts emissions and duration for one departure
// hour on date. A zero date means today.
func (e *Engine) PredictJourneyOutcome(ctx context.Context, origin, destination, mode string, hour int, date time.Time) (model.OptimalRoute, error) {
	ctx, span := tracer.Start(ctx, "prediction.PredictJourneyOutcome")
	defer span.End()
	if hour < 0 || hour > 23 {
		return model.OptimalRoute{}, &model.InputError{Field: "hour", Reason: fmt.Sprintf("%d out of range", hour)}
	}
	q, err := e.newQuery(ctx, origin, destination)
	if err != nil {
		span.RecordError(err)
		return model.OptimalRoute{}, err
	}
	m, sub := e.parseMode(mode)
	r := e.outcome(ctx, q, m, sub, atHour(e.dateOr(date), hour))
	e.served(events.KindOutcome, m, 1)
	return r, nil
}

// PredictOptimalDepartureTimes evaluates every canonical hour on date and
// returns the five with the lowest predicted emissions, ascending. Savings
// are relative to the worst evaluated hour.
func (e *Engine) PredictOptimalDepartureTimes(ctx context.Context, origin, destination, mode string, date time.Time) ([]model.OptimalRoute, error) {
	ctx, span := tracer.Start(ctx, "prediction.PredictOptimalDepartureTimes")
	defer span.End()
	q, err := e.newQuery(ctx, origin, destination)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	m, sub := e.parseMode(mode)
	day := e.dateOr(date)

	candidates := make([]model.OptimalRoute, 0, len(CanonicalHours))
	for _, h := range CanonicalHours {
		candidates = append(candidates, e.outcome(ctx, q, m, sub, atHour(day, h)))
	}
	slices.SortStableFunc(candidates, func(a, b model.OptimalRoute) int {
		return cmp.Compare(a.PredictedEmissions, b.PredictedEmissions)
	})
	worst := candidates[len(candidates)-1]
	for i := range candidates {
		candidates[i].Savings = savingsAgainst(worst, candidates[i])
	}
	out := candidates[:min(maxDepartureResults, len(candidates))]
	span.SetAttributes(attribute.Int("similar_journeys", len(q.similar)))
	e.served(events.KindDeparture, m, len(out))
	return out, nil
}

// SuggestEcoFriendlyAlternatives predicts every mode other than currentMode
// and returns them by descending emission savings against currentMode.
func (e *Engine) SuggestEcoFriendlyAlternatives(ctx context.Context, origin, destination, currentMode string, departure time.Time) ([]model.OptimalRoute, error) {
	ctx, span := tracer.Start(ctx, "prediction.SuggestEcoFriendlyAlternatives")
	defer span.End()
	q, err := e.newQuery(ctx, origin, destination)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	cur, sub := e.parseMode(currentMode)
	at := e.dateOr(departure)
	baseline := e.outcome(ctx, q, cur, sub, at)

	var out []model.OptimalRoute
	for _, m := range model.AllModes() {
		if m == cur {
			continue
		}
		c := e.outcome(ctx, q, m, "", at)
		c.Savings = savingsAgainst(baseline, c)
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b model.OptimalRoute) int {
		return cmp.Compare(b.Savings.Emissions, a.Savings.Emissions)
	})
	e.served(events.KindAlternatives, cur, len(out))
	return out, nil
}

// OptimizeRouteRealTime picks the modes that fit the trip distance (walking
// under 2 km, cycling under 10 km, transit and driving always), drops the
// excluded ones and ranks the rest by 0.7×emissions + 0.3×hours, ascending.
// Savings are relative to driving.
func (e *Engine) OptimizeRouteRealTime(ctx context.Context, origin, destination string, prefs Preferences) ([]model.OptimalRoute, error) {
	ctx, span := tracer.Start(ctx, "prediction.OptimizeRouteRealTime")
	defer span.End()
	q, err := e.newQuery(ctx, origin, destination)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	at := e.dateOr(prefs.DepartureTime)

	var modes []model.Mode
	if q.distance < 2 {
		modes = append(modes, model.ModeWalking)
	}
	if q.distance < 10 {
		modes = append(modes, model.ModeCycling)
	}
	modes = append(modes, model.ModeTransit, model.ModeDriving)
	modes = slices.DeleteFunc(modes, func(m model.Mode) bool {
		return slices.Contains(prefs.ExcludeModes, m)
	})

	driving := e.outcome(ctx, q, model.ModeDriving, "", at)
	out := make([]model.OptimalRoute, 0, len(modes))
	for _, m := range modes {
		c := driving
		if m != model.ModeDriving {
			c = e.outcome(ctx, q, m, "", at)
		}
		c.Savings = savingsAgainst(driving, c)
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b model.OptimalRoute) int {
		return cmp.Compare(realTimeScore(a), realTimeScore(b))
	})
	e.served(events.KindRealTime, "", len(out))
	return out, nil
}

func realTimeScore(r model.OptimalRoute) float64 {
	return 0.7*r.PredictedEmissions + 0.3*(r.PredictedDuration/60)
}
