package prediction

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/kilianp07/carbontrip/core/model"
)

// DistanceProvider resolves the road distance in km between two places.
type DistanceProvider interface {
	Distance(ctx context.Context, origin, destination string) (float64, error)
}

// StubDistance is a placeholder returning a uniform distance in [10, 30) km.
// It exists so predictions can run without a routing backend and must be
// replaced by a real provider in production.
type StubDistance struct {
	Rand func() float64
}

func (s StubDistance) Distance(context.Context, string, string) (float64, error) {
	r := s.Rand
	if r == nil {
		r = rand.Float64
	}
	return 10 + r()*20, nil
}

// FixedDistance always returns the same distance.
type FixedDistance float64

func (f FixedDistance) Distance(context.Context, string, string) (float64, error) {
	return float64(f), nil
}

// HaversineDistance computes the great-circle distance when both places are
// "lat,lon" pairs and asks Fallback otherwise. A nil Fallback uses
// StubDistance.
type HaversineDistance struct {
	Fallback DistanceProvider
}

func (h HaversineDistance) Distance(ctx context.Context, origin, destination string) (float64, error) {
	o, errO := model.ParseCoordinates(origin)
	d, errD := model.ParseCoordinates(destination)
	if errO == nil && errD == nil {
		return haversineKm(o, d), nil
	}
	fb := h.Fallback
	if fb == nil {
		fb = StubDistance{}
	}
	return fb.Distance(ctx, origin, destination)
}

const earthRadiusKm = 6371.0

func haversineKm(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
