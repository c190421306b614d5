package aggregator

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/postgres/postgrestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	db := postgrestest.Open(t)
	ctx := context.Background()
	store := NewStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	_, err := db.DB.ExecContext(ctx, `TRUNCATE analytics_snapshots`)
	require.NoError(t, err)

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, store.SaveSnapshot(ctx, analytics.AggregatedStats{TotalSearches: 3, PostsCreated: 1}))
	latest, err = store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.EqualValues(t, 3, latest.Stats.TotalSearches)

	list, err := store.ListSnapshots(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
