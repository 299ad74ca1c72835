package prediction

import (
	"strings"
	"unicode"

	"github.com/kilianp07/carbontrip/core/model"
)

func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[f] = struct{}{}
	}
	return out
}

func overlaps(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}

// similarRoute reports whether a journey shares at least one origin token and
// one destination token with the query. This is a loose match: two unrelated
// addresses on "Main Street" are considered similar.
func similarRoute(j model.JourneyPattern, origin, destination map[string]struct{}) bool {
	return overlaps(tokens(j.Origin), origin) && overlaps(tokens(j.Destination), destination)
}

func similarJourneys(log []model.JourneyPattern, origin, destination string) []model.JourneyPattern {
	o, d := tokens(origin), tokens(destination)
	var out []model.JourneyPattern
	for _, j := range log {
		if similarRoute(j, o, d) {
			out = append(out, j)
		}
	}
	return out
}
