// Package db provides GORM-based database operations for aura-core.
package db

import (
	"time"

	"gorm.io/gorm"
)

// SummaryRecord is a persisted daily summary row, one per dashboard refresh.
// MoodScore is nullable: a day without a mood check-in stores NULL, not zero.
type SummaryRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Day             string `gorm:"index:idx_summaries_day;not null"` // YYYY-MM-DD, local day
	MoodScore       *int
	CompletionRate  int    `gorm:"not null"`
	SessionCount    int    `gorm:"not null"`
	ActivityCount   int    `gorm:"not null"`
	ComputedAt      string `gorm:"not null"`
	ComputedAtEpoch int64  `gorm:"index:idx_summaries_computed,sort:desc;not null"`
}

func (SummaryRecord) TableName() string { return "daily_summaries" }

// BeforeCreate hook to ensure timestamps are set.
func (r *SummaryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ComputedAtEpoch == 0 {
		r.ComputedAtEpoch = time.Now().UnixMilli()
	}
	if r.ComputedAt == "" {
		r.ComputedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// MoodRecord is a locally journaled mood check-in, kept so the mood history
// survives upstream outages.
type MoodRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Score           int    `gorm:"not null"`
	Note            string `gorm:"type:text"`
	CapturedAt      string `gorm:"not null"`
	CapturedAtEpoch int64  `gorm:"index:idx_moods_captured,sort:desc;not null"`
}

func (MoodRecord) TableName() string { return "mood_records" }

// BeforeCreate hook to ensure timestamps are set.
func (r *MoodRecord) BeforeCreate(tx *gorm.DB) error {
	if r.CapturedAtEpoch == 0 {
		r.CapturedAtEpoch = time.Now().UnixMilli()
	}
	if r.CapturedAt == "" {
		r.CapturedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}
