package synchronizer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/store"
	testdb "github.com/tico-news/newsmonitor/test/database"
)

func TestSeedBackfillRetriedAfterStoreError(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	dbClient := testdb.NewTestClient(t)
	st := store.New(dbClient.Pool(), logger)
	ctx := context.Background()

	oldest := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveDayIndex(ctx, models.DayIndex{Date: oldest, Path: "p"}))

	worker := New(st, nil, nil, config.SynchronizerConfig{
		FirstDay:      oldest.AddDate(0, 0, -3),
		DaysChunkSize: 5,
	}, time.UTC, logger)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, worker.seedBackfill(cancelled))
	assert.False(t, worker.seeded, "a failed seeding attempt must be retried")

	require.NoError(t, worker.seedBackfill(ctx))
	assert.True(t, worker.seeded)

	gap, err := st.EarliestGap(ctx)
	require.NoError(t, err)
	require.NotNil(t, gap)
	assert.Equal(t, "2024-05-07", gap.Start.Format(time.DateOnly))
}

func TestSeedBackfillWithoutFirstDayIsNoop(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	dbClient := testdb.NewTestClient(t)
	st := store.New(dbClient.Pool(), logger)

	worker := New(st, nil, nil, config.SynchronizerConfig{DaysChunkSize: 5}, time.UTC, logger)
	require.NoError(t, worker.seedBackfill(context.Background()))
	assert.True(t, worker.seeded)

	gap, err := st.EarliestGap(context.Background())
	require.NoError(t, err)
	assert.Nil(t, gap)
}
