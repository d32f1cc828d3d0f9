// Package db provides GORM-based database operations for aura-core.
package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/aura-wellness/aura-core/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Ping())

	// Verify WAL mode is enabled
	var journalMode string
	err := store.DB.Raw("PRAGMA journal_mode").Scan(&journalMode).Error
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)

	// Verify tables exist
	for _, table := range []string{"daily_summaries", "mood_records"} {
		assert.True(t, store.DB.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestSummaryStore_SaveAndRecent(t *testing.T) {
	store := newTestStore(t)
	summaries := NewSummaryStore(store)
	ctx := context.Background()

	mood := 65
	base := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := summaries.SaveSummary(ctx, models.DailySummary{
			MoodScore:      &mood,
			CompletionRate: 100,
			SessionCount:   i,
			ActivityCount:  i + 1,
			ComputedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	entries, err := summaries.RecentSummaries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, 2, entries[0].Summary.SessionCount)
	assert.Equal(t, 1, entries[1].Summary.SessionCount)
	assert.Equal(t, "2026-08-30", entries[0].Day)
	require.NotNil(t, entries[0].Summary.MoodScore)
	assert.Equal(t, 65, *entries[0].Summary.MoodScore)
}

func TestSummaryStore_NullMoodRoundTrips(t *testing.T) {
	store := newTestStore(t)
	summaries := NewSummaryStore(store)
	ctx := context.Background()

	err := summaries.SaveSummary(ctx, models.DailySummary{
		CompletionRate: 0,
		ComputedAt:     time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	entries, err := summaries.RecentSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Summary.MoodScore)
}

func TestMoodStore_RecordAndSince(t *testing.T) {
	store := newTestStore(t)
	moods := NewMoodStore(store)
	ctx := context.Background()

	base := time.Date(2026, time.August, 30, 8, 0, 0, 0, time.UTC)
	require.NoError(t, moods.RecordMood(ctx, 40, "rough morning", base))
	require.NoError(t, moods.RecordMood(ctx, 70, "", base.Add(6*time.Hour)))
	require.NoError(t, moods.RecordMood(ctx, 55, "old", base.AddDate(0, 0, -2)))

	samples, err := moods.MoodsSince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// Oldest first
	assert.Equal(t, 40, samples[0].Score)
	assert.Equal(t, 70, samples[1].Score)
}
