package model

import "strings"

// Mode is a canonical transport mode.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeTransit Mode = "public transit"
	ModeCycling Mode = "cycling"
	ModeWalking Mode = "walking"
)

// AllModes returns every canonical mode in a stable order.
func AllModes() []Mode {
	return []Mode{ModeDriving, ModeTransit, ModeCycling, ModeWalking}
}

// IsValid reports whether m is one of the canonical modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDriving, ModeTransit, ModeCycling, ModeWalking:
		return true
	}
	return false
}

// IsActive reports whether the mode is human powered.
func (m Mode) IsActive() bool {
	return m == ModeCycling || m == ModeWalking
}

func (m Mode) String() string { return string(m) }

// TransitSubtype refines ModeTransit.
type TransitSubtype string

const (
	TransitBus    TransitSubtype = "bus"
	TransitTrain  TransitSubtype = "train"
	TransitSubway TransitSubtype = "subway"
	TransitTram   TransitSubtype = "tram"
)

var modeSynonyms = map[string]struct {
	mode    Mode
	subtype TransitSubtype
}{
	"driving":          {mode: ModeDriving},
	"drive":            {mode: ModeDriving},
	"car":              {mode: ModeDriving},
	"auto":             {mode: ModeDriving},
	"public transit":   {mode: ModeTransit},
	"public transport": {mode: ModeTransit},
	"public_transit":   {mode: ModeTransit},
	"transit":          {mode: ModeTransit},
	"bus":              {mode: ModeTransit, subtype: TransitBus},
	"train":            {mode: ModeTransit, subtype: TransitTrain},
	"rail":             {mode: ModeTransit, subtype: TransitTrain},
	"subway":           {mode: ModeTransit, subtype: TransitSubway},
	"metro":            {mode: ModeTransit, subtype: TransitSubway},
	"tram":             {mode: ModeTransit, subtype: TransitTram},
	"cycling":          {mode: ModeCycling},
	"cycle":            {mode: ModeCycling},
	"bike":             {mode: ModeCycling},
	"bicycle":          {mode: ModeCycling},
	"walking":          {mode: ModeWalking},
	"walk":             {mode: ModeWalking},
	"foot":             {mode: ModeWalking},
	"on foot":          {mode: ModeWalking},
}

// ParseMode maps a loosely typed mode string to its canonical mode and, for
// transit, an optional subtype. ok is false for unrecognized input.
func ParseMode(s string) (m Mode, sub TransitSubtype, ok bool) {
	key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	e, found := modeSynonyms[key]
	if !found {
		return "", "", false
	}
	return e.mode, e.subtype, true
}
