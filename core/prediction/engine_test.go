package prediction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/internal/clock"
)

type recorder struct {
	mu  sync.Mutex
	evs []any
}

func (r *recorder) Publish(ev any) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func (r *recorder) count(match func(any) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.evs {
		if match(ev) {
			n++
		}
	}
	return n
}

// Wednesday
var wednesday = time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)

func newTestEngine(dist float64) *Engine {
	return New(Options{
		Distance: FixedDistance(dist),
		Clock:    clock.NewFixed(wednesday.Add(10 * time.Hour)),
		Rand:     func() float64 { return 0.5 },
	})
}

func TestPredictOptimalDepartureTimes_SortedAndBounded(t *testing.T) {
	e := newTestEngine(20)
	routes, err := e.PredictOptimalDepartureTimes(context.Background(), "Home", "Office", "driving", wednesday)
	require.NoError(t, err)
	require.Len(t, routes, 5)
	for i := 1; i < len(routes); i++ {
		assert.LessOrEqual(t, routes[i-1].PredictedEmissions, routes[i].PredictedEmissions)
	}
	var hours []int
	for _, r := range routes[:4] {
		hours = append(hours, r.DepartureTime.Hour())
		assert.InDelta(t, 0.21*20*1.2, r.PredictedEmissions, 1e-9)
		assert.Greater(t, r.Savings.Emissions, 0.0)
	}
	assert.ElementsMatch(t, []int{6, 12, 13, 20}, hours)
	assert.Equal(t, model.ModeDriving, routes[0].Mode)
}

func TestPredictJourneyOutcome_NightDriving(t *testing.T) {
	e := newTestEngine(20)
	r, err := e.PredictJourneyOutcome(context.Background(), "A", "B", "car", 3, wednesday)
	require.NoError(t, err)
	assert.InDelta(t, 0.21*20*0.9, r.PredictedEmissions, 1e-9)
	assert.InDelta(t, 20.0/47*60, r.PredictedDuration, 1e-9)
	assert.Equal(t, 40.0, r.Confidence)
	assert.Equal(t, model.Savings{}, r.Savings)
	assert.Contains(t, r.Reasoning, "low congestion")
}

func TestPredictJourneyOutcome_ModalSpeeds(t *testing.T) {
	e := newTestEngine(20)
	ctx := context.Background()
	walk, err := e.PredictJourneyOutcome(ctx, "A", "B", "walking", 10, wednesday)
	require.NoError(t, err)
	assert.InDelta(t, 240.0, walk.PredictedDuration, 1e-9)
	assert.Equal(t, 0.0, walk.PredictedEmissions)
	bus, err := e.PredictJourneyOutcome(ctx, "A", "B", "transit", 10, wednesday)
	require.NoError(t, err)
	assert.InDelta(t, 48.0, bus.PredictedDuration, 1e-9)

	_, err = e.PredictJourneyOutcome(ctx, "A", "B", "walking", 24, wednesday)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPredictJourneyOutcome_ConfidenceGrowsWithHistory(t *testing.T) {
	e := newTestEngine(10)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{
			Origin: "12 Rue Victor Hugo", Destination: "Gare Part-Dieu", Mode: "driving", Distance: 10,
			Timestamp: wednesday.AddDate(0, 0, -7*i).Add(8*time.Hour + 5*time.Minute),
		}))
	}
	r, err := e.PredictJourneyOutcome(ctx, "Victor Hugo", "Part-Dieu station", "driving", 8, wednesday)
	require.NoError(t, err)
	assert.Equal(t, 95.0, r.Confidence)

	other, err := e.PredictJourneyOutcome(ctx, "Victor Hugo", "Part-Dieu station", "driving", 9, wednesday)
	require.NoError(t, err)
	assert.Equal(t, 40.0, other.Confidence)
}

func TestPredictTrafficConditions(t *testing.T) {
	e := newTestEngine(10)
	ctx := context.Background()

	winterRush := e.PredictTrafficConditions(ctx, "a->b", time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC))
	assert.InDelta(t, 0.88, winterRush.CongestionScore, 1e-9)
	assert.Equal(t, model.CongestionSevere, winterRush.ExpectedCongestion)
	assert.InDelta(t, 23.6, winterRush.AverageSpeed, 1e-9)
	assert.InDelta(t, 0.6, winterRush.Reliability, 1e-9)

	fridayNight := e.PredictTrafficConditions(ctx, "a->b", time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC))
	assert.InDelta(t, 0.345, fridayNight.CongestionScore, 1e-9)
	assert.Equal(t, model.CongestionMedium, fridayNight.ExpectedCongestion)

	night := e.PredictTrafficConditions(ctx, "a->b", time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC))
	assert.InDelta(t, 0.07, night.CongestionScore, 1e-9)
	assert.InDelta(t, 47.9, night.AverageSpeed, 1e-9)
}

func TestPredictTrafficConditions_Deterministic(t *testing.T) {
	rec := &recorder{}
	calls := 0
	e := New(Options{
		Distance: FixedDistance(5),
		Rand:     func() float64 { calls++; return float64(calls%7) / 7 },
		Events:   rec,
	})
	ctx := context.Background()
	require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{
		Origin: "x", Destination: "y", Mode: "bus", Distance: 5,
		Timestamp: time.Date(2025, 5, 6, 17, 30, 0, 0, time.UTC),
	}))
	at := time.Date(2025, 5, 13, 17, 0, 0, 0, time.UTC)
	first := e.PredictTrafficConditions(ctx, "x->y", at)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.PredictTrafficConditions(ctx, "x->y", at.Add(time.Duration(i)*time.Minute)))
	}
	hits := rec.count(func(ev any) bool {
		l, ok := ev.(events.CacheLookup)
		return ok && l.Cache == events.CachePrediction && l.Hit
	})
	assert.Equal(t, 5, hits)
}

func TestPredictTrafficConditions_HistoricalAverage(t *testing.T) {
	e := newTestEngine(10)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{
			Origin: "a", Destination: "b", Mode: "driving", Distance: 10,
			Timestamp: time.Date(2025, 4, 8, 8, 15, 0, 0, time.UTC),
			Traffic:   &model.TrafficConditions{CongestionLevel: model.CongestionSevere},
		}))
	}
	tp := e.PredictTrafficConditions(ctx, "a->b", time.Date(2025, 4, 15, 8, 0, 0, 0, time.UTC))
	assert.InDelta(t, 0.85, tp.CongestionScore, 1e-9)
	assert.InDelta(t, 0.64, tp.Reliability, 1e-9)
	assert.Equal(t, time.Tuesday, tp.DayOfWeek)
}

func TestSuggestEcoFriendlyAlternatives(t *testing.T) {
	e := newTestEngine(12)
	alts, err := e.SuggestEcoFriendlyAlternatives(context.Background(), "A", "B", "car", wednesday.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, alts, 3)
	for _, a := range alts {
		assert.NotEqual(t, model.ModeDriving, a.Mode)
	}
	assert.Equal(t, model.ModeCycling, alts[0].Mode)
	assert.Equal(t, model.ModeWalking, alts[1].Mode)
	assert.Equal(t, model.ModeTransit, alts[2].Mode)
	assert.InDelta(t, 0.21*12*1.2, alts[0].Savings.Emissions, 1e-9)
	assert.InDelta(t, (0.21-0.089)*12*1.2, alts[2].Savings.Emissions, 1e-9)
	assert.InDelta(t, (0.25-0.02)*12, alts[0].Savings.Cost, 1e-9)
	for i := 1; i < len(alts); i++ {
		assert.GreaterOrEqual(t, alts[i-1].Savings.Emissions, alts[i].Savings.Emissions)
	}
}

func TestSuggestEcoFriendlyAlternatives_NeverReturnsCurrentMode(t *testing.T) {
	e := newTestEngine(7)
	for _, cur := range []string{"driving", "public transit", "tram", "cycling", "walking"} {
		alts, err := e.SuggestEcoFriendlyAlternatives(context.Background(), "A", "B", cur, time.Time{})
		require.NoError(t, err)
		m, _, _ := model.ParseMode(cur)
		assert.Len(t, alts, 3)
		for _, a := range alts {
			assert.NotEqual(t, m, a.Mode, cur)
		}
	}
}

func TestOptimizeRouteRealTime(t *testing.T) {
	ctx := context.Background()
	short := newTestEngine(1.5)
	routes, err := short.OptimizeRouteRealTime(ctx, "A", "B", Preferences{DepartureTime: wednesday.Add(10 * time.Hour)})
	require.NoError(t, err)
	var modes []model.Mode
	for _, r := range routes {
		modes = append(modes, r.Mode)
	}
	assert.Equal(t, []model.Mode{model.ModeCycling, model.ModeWalking, model.ModeTransit, model.ModeDriving}, modes)
	assert.Equal(t, model.Savings{}, routes[3].Savings)

	long := newTestEngine(15)
	routes, err = long.OptimizeRouteRealTime(ctx, "A", "B", Preferences{ExcludeModes: []model.Mode{model.ModeDriving}})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, model.ModeTransit, routes[0].Mode)
	assert.Greater(t, routes[0].Savings.Emissions, 0.0)
}

func TestAddJourneyData(t *testing.T) {
	e := newTestEngine(10)
	ctx := context.Background()
	require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{Origin: "a", Destination: "b", Mode: "Car", Distance: 3}))
	j := e.Journeys()[0]
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, model.ModeDriving, j.Mode)
	assert.Equal(t, 10, j.Hour)
	assert.Equal(t, time.Wednesday, j.DayOfWeek)

	err := e.AddJourneyData(ctx, model.JourneyPattern{Mode: "walking", Distance: -2})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "distance", ie.Field)
	assert.Equal(t, 1, e.JourneyCount())
}

func TestAddJourneyData_BoundedLogKeepsNewest(t *testing.T) {
	e := New(Options{Distance: FixedDistance(1), MaxJourneys: 3})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{ID: fmt.Sprint(i), Mode: "walking", Distance: 1}))
	}
	js := e.Journeys()
	require.Len(t, js, 3)
	assert.Equal(t, []string{"2", "3", "4"}, []string{js[0].ID, js[1].ID, js[2].ID})
}

func TestRetrainRefreshesMetadataOnly(t *testing.T) {
	clk := clock.NewFixed(wednesday)
	rec := &recorder{}
	e := New(Options{Distance: FixedDistance(1), Clock: clk, Events: rec})
	ctx := context.Background()
	before := e.Models()
	require.Len(t, before, 3)

	clk.Set(wednesday.Add(time.Hour))
	for i := 0; i < DefaultRetrainInterval-1; i++ {
		require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{Mode: "bus", Distance: 4}))
	}
	assert.Equal(t, 0, e.Models()[ModelTraffic].SampleSize)

	require.NoError(t, e.AddJourneyData(ctx, model.JourneyPattern{Mode: "bus", Distance: 4}))
	after := e.Models()
	for name, m := range after {
		assert.Equal(t, DefaultRetrainInterval, m.SampleSize, name)
		assert.Equal(t, wednesday.Add(time.Hour), m.LastTrained, name)
		assert.Equal(t, before[name].Accuracy, m.Accuracy, name)
		assert.Equal(t, before[name].Features, m.Features, name)
	}
	assert.Equal(t, 1, rec.count(func(ev any) bool { _, ok := ev.(events.ModelRetrained); return ok }))
}

func TestEngineConcurrentUse(t *testing.T) {
	e := New(Options{Distance: FixedDistance(8), RetrainInterval: 10})
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = e.AddJourneyData(ctx, model.JourneyPattern{
					Origin: "a", Destination: "b", Mode: "cycling", Distance: 8,
					Timestamp: wednesday.Add(time.Duration(w*50+i) * time.Minute),
				})
				_ = e.PredictTrafficConditions(ctx, "a->b", wednesday.Add(time.Duration(i)*time.Hour))
				_, _ = e.SuggestEcoFriendlyAlternatives(ctx, "a", "b", "driving", wednesday)
				_ = e.Models()
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 400, e.JourneyCount())
	assert.Positive(t, e.Models()[ModelModeChoice].SampleSize)
}

func TestDistanceErrorsPropagate(t *testing.T) {
	boom := errors.New("router down")
	e := New(Options{Distance: distanceFunc(func(context.Context, string, string) (float64, error) { return 0, boom })})
	_, err := e.PredictOptimalDepartureTimes(context.Background(), "a", "b", "driving", time.Time{})
	assert.ErrorIs(t, err, boom)
}

type distanceFunc func(ctx context.Context, o, d string) (float64, error)

func (f distanceFunc) Distance(ctx context.Context, o, d string) (float64, error) { return f(ctx, o, d) }
