package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carbontrip/core/factory"
	"github.com/kilianp07/carbontrip/core/model"
)

func TestMemoryStore_LoadFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(factory.ModuleConfig{})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, model.JourneyPattern{ID: "late", Mode: model.ModeDriving, Timestamp: t0.Add(48 * time.Hour)}))
	require.NoError(t, s.Append(ctx, model.JourneyPattern{ID: "early", Mode: model.ModeDriving, Timestamp: t0}))
	require.NoError(t, s.Append(ctx, model.JourneyPattern{ID: "bike", Mode: model.ModeCycling, Timestamp: t0.Add(time.Hour)}))

	all, err := s.Load(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "early", all[0].ID)
	assert.Equal(t, "late", all[2].ID)

	cars, err := s.Load(ctx, Query{Mode: model.ModeDriving, End: t0.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "early", cars[0].ID)
}

func TestNewStoreUnknownType(t *testing.T) {
	_, err := NewStore(factory.ModuleConfig{Type: "tape"})
	assert.Error(t, err)
}
