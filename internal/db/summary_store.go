// Package db provides GORM-based database operations for aura-core.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// MaxSummaryRows is the cap on journaled summaries; the oldest rows beyond it
// are pruned on each save.
const MaxSummaryRows = 1000

// SummaryStore journals computed daily summaries and serves the history view.
type SummaryStore struct {
	db *gorm.DB
}

// NewSummaryStore creates a new summary store.
func NewSummaryStore(store *Store) *SummaryStore {
	return &SummaryStore{db: store.DB}
}

// SummaryHistoryEntry is one journaled summary with its local day.
type SummaryHistoryEntry struct {
	Day     string              `json:"day"`
	Summary models.DailySummary `json:"summary"`
}

// SaveSummary journals one computed summary, then prunes rows beyond the cap.
func (s *SummaryStore) SaveSummary(ctx context.Context, summary models.DailySummary) error {
	rec := &SummaryRecord{
		Day:             summary.ComputedAt.Format("2006-01-02"),
		MoodScore:       summary.MoodScore,
		CompletionRate:  summary.CompletionRate,
		SessionCount:    summary.SessionCount,
		ActivityCount:   summary.ActivityCount,
		ComputedAt:      summary.ComputedAt.Format(time.RFC3339),
		ComputedAtEpoch: summary.ComputedAt.UnixMilli(),
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save summary: %w", err)
	}

	return s.prune(ctx)
}

// RecentSummaries returns the most recent journaled summaries, newest first.
func (s *SummaryStore) RecentSummaries(ctx context.Context, limit int) ([]SummaryHistoryEntry, error) {
	if limit <= 0 {
		limit = 30
	}

	var records []SummaryRecord
	err := s.db.WithContext(ctx).
		Order("computed_at_epoch DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("recent summaries: %w", err)
	}

	entries := make([]SummaryHistoryEntry, 0, len(records))
	for _, rec := range records {
		computedAt, _ := time.Parse(time.RFC3339, rec.ComputedAt)
		entries = append(entries, SummaryHistoryEntry{
			Day: rec.Day,
			Summary: models.DailySummary{
				MoodScore:      rec.MoodScore,
				CompletionRate: rec.CompletionRate,
				SessionCount:   rec.SessionCount,
				ActivityCount:  rec.ActivityCount,
				ComputedAt:     computedAt,
			},
		})
	}
	return entries, nil
}

func (s *SummaryStore) prune(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&SummaryRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count summaries: %w", err)
	}
	if count <= MaxSummaryRows {
		return nil
	}

	err := s.db.WithContext(ctx).Exec(
		`DELETE FROM daily_summaries WHERE id IN (
			SELECT id FROM daily_summaries ORDER BY computed_at_epoch ASC LIMIT ?
		)`, count-MaxSummaryRows).Error
	if err != nil {
		return fmt.Errorf("prune summaries: %w", err)
	}
	return nil
}
