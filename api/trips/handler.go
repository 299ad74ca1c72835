// Package trips serves emission estimates and eco-routing predictions over
// HTTP.
package trips

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/carbontrip/api"
	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/core/monitoring"
	"github.com/kilianp07/carbontrip/core/prediction"
)

// Estimator computes a single trip estimate.
type Estimator interface {
	Calculate(ctx context.Context, req emission.Request) (model.EmissionResult, error)
}

// Predictor answers the ranking queries.
type Predictor interface {
	PredictOptimalDepartureTimes(ctx context.Context, origin, destination, mode string, date time.Time) ([]model.OptimalRoute, error)
	SuggestEcoFriendlyAlternatives(ctx context.Context, origin, destination, currentMode string, departure time.Time) ([]model.OptimalRoute, error)
	OptimizeRouteRealTime(ctx context.Context, origin, destination string, prefs prediction.Preferences) ([]model.OptimalRoute, error)
	PredictTrafficConditions(ctx context.Context, routeKey string, at time.Time) model.TrafficPrediction
}

type handler struct {
	est  Estimator
	pred Predictor
	mon  monitoring.Monitor
}

// NewHandler returns a mux serving GET requests under /api/trips/:
// estimate, departures, alternatives, optimize and traffic.
func NewHandler(est Estimator, pred Predictor, mon monitoring.Monitor) http.Handler {
	h := &handler{est: est, pred: pred, mon: mon}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trips/estimate", h.estimate)
	mux.HandleFunc("GET /api/trips/departures", h.departures)
	mux.HandleFunc("GET /api/trips/alternatives", h.alternatives)
	mux.HandleFunc("GET /api/trips/optimize", h.optimize)
	mux.HandleFunc("GET /api/trips/traffic", h.traffic)
	return mux
}

func (h *handler) estimate(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	req := emission.Request{Mode: v.Get("mode")}
	var err error
	if req.DistanceKm, err = strconv.ParseFloat(v.Get("distance"), 64); err != nil {
		api.WriteError(w, r, h.mon, &model.InputError{Field: "distance", Reason: err.Error()})
		return
	}
	if s := v.Get("hour"); s != "" {
		hour, err := model.ParseDepartureHour(s)
		if err != nil {
			api.WriteError(w, r, h.mon, err)
			return
		}
		req.Hour = &hour
	}
	if fuel := v.Get("fuel"); fuel != "" {
		req.Vehicle = &model.VehicleSpec{FuelType: model.FuelType(fuel)}
		if y, err := strconv.Atoi(v.Get("year")); err == nil {
			req.Vehicle.Year = y
		}
	}
	if o, d := v.Get("origin"), v.Get("destination"); o != "" && d != "" {
		oc, err := model.ParseCoordinates(o)
		if err != nil {
			api.WriteError(w, r, h.mon, err)
			return
		}
		dc, err := model.ParseCoordinates(d)
		if err != nil {
			api.WriteError(w, r, h.mon, err)
			return
		}
		req.Origin, req.Destination = &oc, &dc
	}
	res, err := h.est.Calculate(r.Context(), req)
	if err != nil {
		api.WriteError(w, r, h.mon, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}

type tripQuery struct {
	from, to, mode string
	at             time.Time
}

func parseTrip(r *http.Request) (tripQuery, error) {
	v := r.URL.Query()
	q := tripQuery{from: v.Get("from"), to: v.Get("to"), mode: v.Get("mode")}
	if q.from == "" || q.to == "" {
		return q, &model.InputError{Field: "from/to", Reason: "both are required"}
	}
	if q.mode == "" {
		q.mode = string(model.ModeDriving)
	}
	if s := v.Get("at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, &model.InputError{Field: "at", Reason: fmt.Sprintf("expected RFC 3339, got %q", s)}
		}
		q.at = t
	}
	return q, nil
}

func (h *handler) routes(w http.ResponseWriter, r *http.Request, fn func(tripQuery) ([]model.OptimalRoute, error)) {
	q, err := parseTrip(r)
	if err != nil {
		api.WriteError(w, r, h.mon, err)
		return
	}
	routes, err := fn(q)
	if err != nil {
		api.WriteError(w, r, h.mon, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, routes)
}

func (h *handler) departures(w http.ResponseWriter, r *http.Request) {
	h.routes(w, r, func(q tripQuery) ([]model.OptimalRoute, error) {
		return h.pred.PredictOptimalDepartureTimes(r.Context(), q.from, q.to, q.mode, q.at)
	})
}

func (h *handler) alternatives(w http.ResponseWriter, r *http.Request) {
	h.routes(w, r, func(q tripQuery) ([]model.OptimalRoute, error) {
		return h.pred.SuggestEcoFriendlyAlternatives(r.Context(), q.from, q.to, q.mode, q.at)
	})
}

func (h *handler) optimize(w http.ResponseWriter, r *http.Request) {
	h.routes(w, r, func(q tripQuery) ([]model.OptimalRoute, error) {
		prefs := prediction.Preferences{DepartureTime: q.at}
		if s := r.URL.Query().Get("exclude"); s != "" {
			for _, name := range strings.Split(s, ",") {
				m, _, ok := model.ParseMode(name)
				if !ok {
					return nil, &model.InputError{Field: "exclude", Reason: fmt.Sprintf("unknown mode %q", name)}
				}
				prefs.ExcludeModes = append(prefs.ExcludeModes, m)
			}
		}
		return h.pred.OptimizeRouteRealTime(r.Context(), q.from, q.to, prefs)
	})
}

func (h *handler) traffic(w http.ResponseWriter, r *http.Request) {
	q, err := parseTrip(r)
	if err != nil {
		api.WriteError(w, r, h.mon, err)
		return
	}
	if q.at.IsZero() {
		q.at = time.Now()
	}
	api.WriteJSON(w, http.StatusOK, h.pred.PredictTrafficConditions(r.Context(), prediction.RouteKey(q.from, q.to), q.at))
}
