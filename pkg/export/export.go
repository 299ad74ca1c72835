// Package export writes journeys in interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/carbontrip/core/model"
)

var csvHeader = []string{"id", "timestamp", "origin", "destination", "mode", "distance_km", "emissions_kg", "duration_min"}

// Write encodes journeys as "json" or "csv".
func Write(w io.Writer, format string, journeys []model.JourneyPattern) error {
	switch format {
	case "json":
		return WriteJSON(w, journeys)
	case "csv":
		return WriteCSV(w, journeys)
	default:
		return fmt.Errorf("unknown export format %s", format)
	}
}

// WriteJSON writes the journeys as one JSON array.
func WriteJSON(w io.Writer, journeys []model.JourneyPattern) error {
	if journeys == nil {
		journeys = []model.JourneyPattern{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(journeys)
}

// WriteCSV writes the journeys with a header row.
func WriteCSV(w io.Writer, journeys []model.JourneyPattern) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, j := range journeys {
		rec := []string{
			j.ID,
			j.Timestamp.Format(time.RFC3339),
			j.Origin,
			j.Destination,
			string(j.Mode),
			formatFloat(j.Distance),
			formatFloat(j.Emissions),
			formatFloat(j.Duration),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
