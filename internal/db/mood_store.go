// Package db provides GORM-based database operations for aura-core.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// MoodStore keeps a local journal of mood check-ins.
type MoodStore struct {
	db *gorm.DB
}

// NewMoodStore creates a new mood store.
func NewMoodStore(store *Store) *MoodStore {
	return &MoodStore{db: store.DB}
}

// RecordMood journals one check-in.
func (s *MoodStore) RecordMood(ctx context.Context, score int, note string, capturedAt time.Time) error {
	rec := &MoodRecord{
		Score:           score,
		Note:            note,
		CapturedAt:      capturedAt.Format(time.RFC3339),
		CapturedAtEpoch: capturedAt.UnixMilli(),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record mood: %w", err)
	}
	return nil
}

// MoodsSince returns check-ins captured at or after the cutoff, oldest first.
func (s *MoodStore) MoodsSince(ctx context.Context, cutoff time.Time) ([]models.MoodSample, error) {
	var records []MoodRecord
	err := s.db.WithContext(ctx).
		Where("captured_at_epoch >= ?", cutoff.UnixMilli()).
		Order("captured_at_epoch ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("moods since: %w", err)
	}

	samples := make([]models.MoodSample, 0, len(records))
	for _, rec := range records {
		capturedAt, _ := time.Parse(time.RFC3339, rec.CapturedAt)
		samples = append(samples, models.MoodSample{
			Score:      rec.Score,
			CapturedAt: capturedAt,
		})
	}
	return samples, nil
}
