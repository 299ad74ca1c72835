package journal

import (
	"context"
	"slices"
	"sync"

	"github.com/kilianp07/carbontrip/core/model"
)

// MemoryStore keeps journeys in memory for tests or lightweight usage.
type MemoryStore struct {
	mu       sync.Mutex
	journeys []model.JourneyPattern
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores a copy of j.
func (s *MemoryStore) Append(_ context.Context, j model.JourneyPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journeys = append(s.journeys, j)
	return nil
}

// Load returns the matching journeys sorted by timestamp.
func (s *MemoryStore) Load(_ context.Context, q Query) ([]model.JourneyPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.JourneyPattern
	for _, j := range s.journeys {
		if q.Match(j) {
			res = append(res, j)
		}
	}
	slices.SortStableFunc(res, func(a, b model.JourneyPattern) int { return a.Timestamp.Compare(b.Timestamp) })
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
