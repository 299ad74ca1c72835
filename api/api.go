// Package api holds the helpers shared by the HTTP handlers.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/core/monitoring"
)

// RequireBearer rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func RequireBearer(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps invalid input to 400 and reports anything else to mon as
// a 500.
func WriteError(w http.ResponseWriter, r *http.Request, mon monitoring.Monitor, err error) {
	if errors.Is(err, model.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	monitoring.OrNop(mon).CaptureException(err, map[string]string{"path": r.URL.Path})
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
