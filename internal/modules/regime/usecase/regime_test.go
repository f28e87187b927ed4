package usecase_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regimeout "breathtrain/internal/modules/regime/adapter/out"
	"breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/modules/regime/usecase"
)

func TestListStatsMarksBestMean(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := regimeout.NewMemoryStore(nil)
	end := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for _, bpm := range []float64{5, 5.5, 6} {
		id, err := store.GetOrCreateRegimeID(ctx, domain.Regime{DurationMs: 300000, BreathsPerMinute: bpm})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for i, c := range []float64{1.0, 3.0, 2.0, 2.5} {
		id := ids[i%2]
		_, err := store.RecordSegment(ctx, domain.Segment{
			UID:              "s",
			RegimeID:         &id,
			SessionStartTime: end.Add(-5 * time.Minute),
			EndDateTime:      end,
			AvgCoherence:     c,
			Stage:            domain.StageAdaptive,
		})
		require.NoError(t, err)
	}

	out, err := usecase.NewInteractor(store).ListStats(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.5, out[0].Mean, 1e-9)
	assert.InDelta(t, 2.75, out[1].Mean, 1e-9)
	assert.True(t, out[1].Best)
	assert.False(t, out[0].Best)
	assert.True(t, math.IsNaN(out[2].Mean))
	assert.Equal(t, 0, out[2].Count)
}

func TestListStatsEmptyStore(t *testing.T) {
	t.Parallel()
	out, err := usecase.NewInteractor(regimeout.NewMemoryStore(nil)).ListStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}
