package model

// ModeCount is a mode with its number of journeys.
type ModeCount struct {
	Mode  Mode `json:"mode"`
	Count int  `json:"count"`
}

// RouteCount is an origin/destination pair with its number of journeys.
type RouteCount struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// TimePatterns summarizes departure hours.
type TimePatterns struct {
	RushHourShare float64 `json:"rushHourShare"`
	PeakHour      int     `json:"peakHour"`
}

// EmissionTrends compares the earlier and later halves of a journey set.
type EmissionTrends struct {
	Increasing    bool    `json:"increasing"`
	EarlierMean   float64 `json:"earlierMean"`
	LaterMean     float64 `json:"laterMean"`
	ChangePercent float64 `json:"changePercent"`
}

// Season buckets journeys by meteorological season.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// UserAnalytics is the descriptive summary of a user's journeys.
type UserAnalytics struct {
	PreferredModes  []ModeCount    `json:"preferredModes"`
	CommonRoutes    []RouteCount   `json:"commonRoutes"`
	TimePatterns    TimePatterns   `json:"timePatterns"`
	EmissionTrends  EmissionTrends `json:"emissionTrends"`
	Seasonal        map[Season]int `json:"seasonal"`
	Recommendations []string       `json:"recommendations"`
}
