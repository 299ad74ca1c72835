package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns the cache key used for condition lookups.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Validate checks latitude and longitude ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return &InputError{Field: "lat", Reason: fmt.Sprintf("%f must be between -90 and 90", c.Lat)}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &InputError{Field: "lon", Reason: fmt.Sprintf("%f must be between -180 and 180", c.Lon)}
	}
	return nil
}

// ParseCoordinates parses "lat,lon" or "lat lon".
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return Coordinates{}, &InputError{Field: "coordinates", Reason: fmt.Sprintf("expected \"lat,lon\", got %q", s)}
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinates{}, &InputError{Field: "lat", Reason: err.Error()}
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinates{}, &InputError{Field: "lon", Reason: err.Error()}
	}
	c := Coordinates{Lat: lat, Lon: lon}
	return c, c.Validate()
}

// CongestionLevel is an ordinal traffic intensity.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
	CongestionSevere CongestionLevel = "severe"
)

// Score maps the level onto the [0,1] congestion score scale.
func (l CongestionLevel) Score() float64 {
	switch l {
	case CongestionLow:
		return 0.15
	case CongestionMedium:
		return 0.45
	case CongestionHigh:
		return 0.7
	case CongestionSevere:
		return 0.9
	default:
		return 0
	}
}

// CongestionFromScore classifies a [0,1] congestion score.
func CongestionFromScore(score float64) CongestionLevel {
	switch {
	case score < 0.3:
		return CongestionLow
	case score < 0.6:
		return CongestionMedium
	case score < 0.8:
		return CongestionHigh
	default:
		return CongestionSevere
	}
}

// TrafficConditions is a traffic snapshot for a route.
type TrafficConditions struct {
	CongestionLevel CongestionLevel `json:"congestionLevel"`
	AverageSpeed    float64         `json:"averageSpeed"`  // km/h
	StopFrequency   float64         `json:"stopFrequency"` // stops per km
	IdleTime        float64         `json:"idleTime"`      // fraction of trip spent idling
}

// LocalFactors is an environment snapshot for a location.
type LocalFactors struct {
	Altitude    float64 `json:"altitude"`    // m
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	AirQuality  float64 `json:"airQuality"`  // AQI
	RoadGrade   float64 `json:"roadGrade"`   // %, positive uphill
}

// ParseDepartureHour accepts "HH:mm" or a bare hour and returns the hour.
func ParseDepartureHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &InputError{Field: "departureTime", Reason: "empty"}
	}
	head, _, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(head)
	if err != nil {
		return 0, &InputError{Field: "departureTime", Reason: fmt.Sprintf("cannot parse %q", s)}
	}
	if h < 0 || h > 23 {
		return 0, &InputError{Field: "departureTime", Reason: fmt.Sprintf("hour %d out of range", h)}
	}
	return h, nil
}
