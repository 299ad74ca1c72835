// Package conditions fetches live traffic and local environment data from an
// HTTP conditions service.
package conditions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/carbontrip/core/model"
)

const defaultUserAgent = "carbontrip/1.0"

// Authorizer decorates outbound requests with credentials.
type Authorizer interface {
	SetAuthHeader(r *http.Request) error
}

// HTTPSource queries GET {BaseURL}/traffic?origin=lat,lon&destination=lat,lon
// and GET {BaseURL}/local?at=lat,lon. Both endpoints answer with the JSON
// encoding of the matching model type.
type HTTPSource struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	// Auth is optional.
	Auth Authorizer
}

// NewHTTPSource returns a source with a client bounded by timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

// Traffic implements conditions.TrafficSource.
func (s *HTTPSource) Traffic(ctx context.Context, origin, destination model.Coordinates) (model.TrafficConditions, error) {
	var tc model.TrafficConditions
	q := url.Values{"origin": {origin.Key()}, "destination": {destination.Key()}}
	if err := s.get(ctx, "/traffic", q, &tc); err != nil {
		return model.TrafficConditions{}, err
	}
	if tc.CongestionLevel == "" {
		return model.TrafficConditions{}, fmt.Errorf("traffic response without congestion level")
	}
	return tc, nil
}

// Local implements conditions.LocalSource.
func (s *HTTPSource) Local(ctx context.Context, at model.Coordinates) (model.LocalFactors, error) {
	var lf model.LocalFactors
	if err := s.get(ctx, "/local", url.Values{"at": {at.Key()}}, &lf); err != nil {
		return model.LocalFactors{}, err
	}
	return lf, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")
	if s.Auth != nil {
		if err := s.Auth.SetAuthHeader(req); err != nil {
			return fmt.Errorf("%s auth: %w", path, err)
		}
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
