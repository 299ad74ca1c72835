// Package journeys serves the journey journal over HTTP.
package journeys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/carbontrip/api"
	"github.com/kilianp07/carbontrip/core/journal"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/core/monitoring"
)

// Recorder stores a new journey and returns it with its assigned ID.
type Recorder interface {
	RecordJourney(ctx context.Context, j model.JourneyPattern) (model.JourneyPattern, error)
}

// NewHandler returns the handler for /api/journeys. GET lists stored
// journeys filtered by the start, end (RFC 3339) and mode query parameters.
// POST records the JSON journey in the body.
func NewHandler(store journal.Store, rec Recorder, mon monitoring.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r, store, mon)
		case http.MethodPost:
			record(w, r, rec, mon)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func list(w http.ResponseWriter, r *http.Request, store journal.Store, mon monitoring.Monitor) {
	q, err := parseQuery(r)
	if err != nil {
		api.WriteError(w, r, mon, err)
		return
	}
	records, err := store.Load(r.Context(), q)
	if err != nil {
		api.WriteError(w, r, mon, err)
		return
	}
	if records == nil {
		records = []model.JourneyPattern{}
	}
	api.WriteJSON(w, http.StatusOK, records)
}

func record(w http.ResponseWriter, r *http.Request, rec Recorder, mon monitoring.Monitor) {
	var j model.JourneyPattern
	if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
		api.WriteError(w, r, mon, &model.InputError{Field: "body", Reason: err.Error()})
		return
	}
	stored, err := rec.RecordJourney(r.Context(), j)
	if err != nil {
		api.WriteError(w, r, mon, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, stored)
}

func parseQuery(r *http.Request) (journal.Query, error) {
	var q journal.Query
	v := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, &model.InputError{Field: p.name, Reason: fmt.Sprintf("expected RFC 3339, got %q", s)}
		}
		*p.dst = t
	}
	if s := v.Get("mode"); s != "" {
		m, _, ok := model.ParseMode(s)
		if !ok {
			return q, &model.InputError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
		}
		q.Mode = m
	}
	return q, nil
}
