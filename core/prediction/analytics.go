package prediction

import (
	"cmp"
	"context"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/model"
)

const (
	topModes         = 3
	topRoutes        = 5
	minTrendJourneys = 10
	trendThreshold   = 0.05
)

// Analytics advice, emitted when the matching threshold is crossed.
const (
	AdviceCarHeavy     = "Most of your trips are by car; public transit on your regular routes would cut emissions."
	AdviceRushHour     = "Many of your trips start in rush hour; shifting departures by an hour lowers emissions."
	AdviceRising       = "Your trip emissions are rising; review recent journeys for cleaner options."
	AdviceActiveHabits = "Your walking and cycling keep emissions low."
	AdviceNoHistory    = "Log a few journeys to receive personalised suggestions."
)

const (
	carShareThreshold    = 0.6
	rushShareThreshold   = 0.5
	activeShareThreshold = 0.3
)

// AnalyzeUserPatterns summarizes journeys. It is purely descriptive and does
// not read or change the engine state.
func (e *Engine) AnalyzeUserPatterns(ctx context.Context, journeys []model.JourneyPattern) model.UserAnalytics {
	_, span := tracer.Start(ctx, "prediction.AnalyzeUserPatterns")
	defer span.End()

	journeys = canonicalModes(journeys)
	a := model.UserAnalytics{
		PreferredModes: preferredModes(journeys),
		CommonRoutes:   commonRoutes(journeys),
		TimePatterns:   timePatterns(journeys),
		EmissionTrends: emissionTrends(journeys),
		Seasonal:       seasonal(journeys),
	}
	a.Recommendations = analyticsAdvice(journeys, a)
	return a
}

// canonicalModes maps synonyms such as "car" or "Bike" to their canonical
// mode so they are counted together. Unknown modes are kept as given.
func canonicalModes(journeys []model.JourneyPattern) []model.JourneyPattern {
	out := slices.Clone(journeys)
	for i := range out {
		if m, _, ok := model.ParseMode(string(out[i].Mode)); ok {
			out[i].Mode = m
		}
	}
	return out
}

func preferredModes(journeys []model.JourneyPattern) []model.ModeCount {
	counts := map[model.Mode]int{}
	for _, j := range journeys {
		counts[j.Mode]++
	}
	out := make([]model.ModeCount, 0, len(counts))
	for m, c := range counts {
		out = append(out, model.ModeCount{Mode: m, Count: c})
	}
	slices.SortFunc(out, func(a, b model.ModeCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Mode, b.Mode))
	})
	return out[:min(topModes, len(out))]
}

func commonRoutes(journeys []model.JourneyPattern) []model.RouteCount {
	counts := map[string]int{}
	for _, j := range journeys {
		counts[RouteKey(j.Origin, j.Destination)]++
	}
	out := make([]model.RouteCount, 0, len(counts))
	for r, c := range counts {
		out = append(out, model.RouteCount{Route: r, Count: c})
	}
	slices.SortFunc(out, func(a, b model.RouteCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Route, b.Route))
	})
	return out[:min(topRoutes, len(out))]
}

func timePatterns(journeys []model.JourneyPattern) model.TimePatterns {
	if len(journeys) == 0 {
		return model.TimePatterns{}
	}
	var hours [24]int
	rush := 0
	for _, j := range journeys {
		if j.Hour >= 0 && j.Hour < 24 {
			hours[j.Hour]++
		}
		if conditions.IsRushHour(j.Hour) {
			rush++
		}
	}
	peak := 0
	for h, c := range hours {
		if c > hours[peak] {
			peak = h
		}
	}
	return model.TimePatterns{
		RushHourShare: float64(rush) / float64(len(journeys)),
		PeakHour:      peak,
	}
}

// emissionTrends compares the chronologically earlier half with the later
// half. Below minTrendJourneys the trend is never flagged as increasing.
func emissionTrends(journeys []model.JourneyPattern) model.EmissionTrends {
	if len(journeys) < 2 {
		return model.EmissionTrends{}
	}
	sorted := slices.Clone(journeys)
	slices.SortStableFunc(sorted, func(a, b model.JourneyPattern) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	values := make([]float64, len(sorted))
	for i, j := range sorted {
		values[i] = j.Emissions
	}
	half := len(values) / 2
	t := model.EmissionTrends{
		EarlierMean: stat.Mean(values[:half], nil),
		LaterMean:   stat.Mean(values[half:], nil),
	}
	if t.EarlierMean > 0 {
		rise := (t.LaterMean - t.EarlierMean) / t.EarlierMean
		t.ChangePercent = rise * 100
		t.Increasing = len(values) >= minTrendJourneys && rise > trendThreshold
	}
	return t
}

func seasonOf(m time.Month) model.Season {
	switch m {
	case time.December, time.January, time.February:
		return model.SeasonWinter
	case time.March, time.April, time.May:
		return model.SeasonSpring
	case time.June, time.July, time.August:
		return model.SeasonSummer
	default:
		return model.SeasonAutumn
	}
}

func seasonal(journeys []model.JourneyPattern) map[model.Season]int {
	out := map[model.Season]int{}
	for _, j := range journeys {
		out[seasonOf(j.Timestamp.Month())]++
	}
	return out
}

func analyticsAdvice(journeys []model.JourneyPattern, a model.UserAnalytics) []string {
	if len(journeys) == 0 {
		return []string{AdviceNoHistory}
	}
	n := float64(len(journeys))
	var car, active int
	for _, j := range journeys {
		switch {
		case j.Mode == model.ModeDriving:
			car++
		case j.Mode.IsActive():
			active++
		}
	}
	recs := []string{}
	if float64(car)/n > carShareThreshold {
		recs = append(recs, AdviceCarHeavy)
	}
	if a.TimePatterns.RushHourShare > rushShareThreshold {
		recs = append(recs, AdviceRushHour)
	}
	if a.EmissionTrends.Increasing {
		recs = append(recs, AdviceRising)
	}
	if float64(active)/n >= activeShareThreshold {
		recs = append(recs, AdviceActiveHabits)
	}
	return recs
}
