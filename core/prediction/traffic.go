package prediction

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/carbontrip/core/conditions"
	"github.com/kilianp07/carbontrip/core/events"
	"github.com/kilianp07/carbontrip/core/model"
)

// RouteKey builds the traffic prediction key of an origin/destination pair.
func RouteKey(origin, destination string) string {
	return origin + "->" + destination
}

// PredictTrafficConditions returns the expected traffic on a route at the
// weekday and hour of at. The first prediction for a (route, weekday, hour)
// is cached and returned unchanged until evicted.
func (e *Engine) PredictTrafficConditions(ctx context.Context, routeKey string, at time.Time) model.TrafficPrediction {
	ctx, span := tracer.Start(ctx, "prediction.PredictTrafficConditions")
	defer span.End()

	wd, hour := at.Weekday(), at.Hour()
	key := fmt.Sprintf("%s|%d|%d", routeKey, wd, hour)
	tp, hit, _ := e.predictions.Get(ctx, key, func(context.Context) (model.TrafficPrediction, error) {
		return e.computeTraffic(at), nil
	})
	span.SetAttributes(attribute.String("route", routeKey), attribute.Bool("cache_hit", hit))
	e.publish(events.CacheLookup{Cache: events.CachePrediction, Hit: hit})
	return tp
}

func (e *Engine) computeTraffic(at time.Time) model.TrafficPrediction {
	wd, hour := at.Weekday(), at.Hour()
	base := baseCongestion(hour, wd)
	score := min(1, base*weatherImpact(at)*eventImpact(at))
	samples, hist := e.historicalScore(wd, hour, base)
	if samples > 0 {
		score = (score + hist) / 2
	}
	return model.TrafficPrediction{
		Hour:               hour,
		DayOfWeek:          wd,
		ExpectedCongestion: model.CongestionFromScore(score),
		CongestionScore:    score,
		AverageSpeed:       max(15, 50*(1-score*0.6)),
		Reliability:        min(0.95, 0.6+float64(samples)/100),
	}
}

func baseCongestion(hour int, wd time.Weekday) float64 {
	base := 0.3
	if hour >= 22 || hour <= 5 {
		base = 0.1
	}
	if conditions.IsRushHour(hour) {
		base += 0.5
	}
	if hour == 12 || hour == 13 {
		base += 0.2
	}
	if wd == time.Saturday || wd == time.Sunday {
		base *= 0.7
	}
	return min(1, base)
}

func weatherImpact(at time.Time) float64 {
	switch at.Month() {
	case time.December, time.January, time.February:
		return 1.1
	case time.June, time.July, time.August:
		return 1.05
	}
	return 1.0
}

func eventImpact(at time.Time) float64 {
	wd := at.Weekday()
	if (wd == time.Friday || wd == time.Saturday) && at.Hour() >= 18 && at.Hour() <= 23 {
		return 1.15
	}
	return 1.0
}

// historicalScore returns the number of logged journeys at (weekday, hour)
// and their mean congestion score. Journeys without recorded traffic only
// count as samples; when none carries traffic the score is the base
// congestion with ±10% jitter.
func (e *Engine) historicalScore(wd time.Weekday, hour int, base float64) (int, float64) {
	e.mu.RLock()
	n := 0
	var scores []float64
	for _, j := range e.journeys {
		if j.DayOfWeek != wd || j.Hour != hour {
			continue
		}
		n++
		if j.Traffic != nil {
			scores = append(scores, j.Traffic.CongestionLevel.Score())
		}
	}
	e.mu.RUnlock()
	if n == 0 {
		return 0, 0
	}
	if len(scores) > 0 {
		return n, stat.Mean(scores, nil)
	}
	return n, min(1, base*(0.9+e.rand()*0.2))
}
