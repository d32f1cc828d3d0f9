// Package models contains domain models for aura-core.
package models

import (
	"time"
)

// ActivityType classifies a logged wellness activity.
type ActivityType string

const (
	ActivityGame       ActivityType = "game"
	ActivityTherapy    ActivityType = "therapy"
	ActivityMood       ActivityType = "mood"
	ActivityMeditation ActivityType = "meditation"
	ActivityBreathing  ActivityType = "breathing"
	ActivityJournaling ActivityType = "journaling"
)

// ActivityRecord is a single logged activity supplied by the activity source.
// Records are read-only to the core; MoodScore and Duration are optional.
type ActivityRecord struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Name      string       `json:"name"`
	Timestamp time.Time    `json:"timestamp"`
	Completed bool         `json:"completed"`
	MoodScore *int         `json:"moodScore"`
	Duration  *int         `json:"duration"`
}

// MoodSample is one mood measurement on a 0-100 scale.
// The mood source may return zero, one, or many samples for a single day.
type MoodSample struct {
	Score      int       `json:"score"`
	CapturedAt time.Time `json:"capturedAt"`
}
