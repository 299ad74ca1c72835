// Package replay feeds stored journeys back into the prediction engine.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/carbontrip/core/journal"
	"github.com/kilianp07/carbontrip/core/logger"
	"github.com/kilianp07/carbontrip/core/model"
)

// Ingester accepts journeys, typically the prediction engine.
type Ingester interface {
	AddJourneyData(ctx context.Context, j model.JourneyPattern) error
}

// Result counts what a replay did.
type Result struct {
	Loaded   int
	Ingested int
	Skipped  int
}

// Replay loads the journeys matching q from store and ingests them oldest
// first. Invalid journeys are skipped; any other ingest error stops the run.
func Replay(ctx context.Context, store journal.Store, q journal.Query, dst Ingester, log logger.Logger) (Result, error) {
	log = logger.OrNop(log)
	var res Result
	journeys, err := store.Load(ctx, q)
	if err != nil {
		return res, fmt.Errorf("load journal: %w", err)
	}
	res.Loaded = len(journeys)
	for _, j := range journeys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := dst.AddJourneyData(ctx, j); err != nil {
			if errors.Is(err, model.ErrInvalidInput) {
				log.Warnf("skip journey %s: %v", j.ID, err)
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("ingest journey %s: %w", j.ID, err)
		}
		res.Ingested++
	}
	log.Infof("replayed %d journeys (%d skipped)", res.Ingested, res.Skipped)
	return res, nil
}
