// Package models contains domain models for aura-core.
package models

import (
	"time"
)

// DailySummary is the derived wellness snapshot for the current calendar day.
// Every field is a pure function of the inputs at computation time; nothing
// accumulates across refreshes.
type DailySummary struct {
	MoodScore      *int      `json:"moodScore"`
	CompletionRate int       `json:"completionRate"`
	SessionCount   int       `json:"sessionCount"`
	ActivityCount  int       `json:"activityCount"`
	ComputedAt     time.Time `json:"computedAt"`
}

// InsightPriority ranks an insight for display emphasis.
type InsightPriority string

const (
	PriorityLow    InsightPriority = "low"
	PriorityMedium InsightPriority = "medium"
	PriorityHigh   InsightPriority = "high"
)

// Insight is a short derived recommendation. Presentation concerns (icons,
// colors) belong to the UI layer, not this model.
type Insight struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    InsightPriority `json:"priority"`
}

// ActivityLevel classifies how active a calendar day was.
type ActivityLevel string

const (
	LevelNone   ActivityLevel = "none"
	LevelLow    ActivityLevel = "low"
	LevelMedium ActivityLevel = "medium"
	LevelHigh   ActivityLevel = "high"
)

// CalendarActivity is the display projection of one activity inside a
// calendar day bucket.
type CalendarActivity struct {
	Type      ActivityType `json:"type"`
	Name      string       `json:"name"`
	Completed bool         `json:"completed"`
	Time      string       `json:"time"`
}

// CalendarDay is one day's bucket in the rolling activity calendar.
type CalendarDay struct {
	Date       time.Time          `json:"date"`
	Level      ActivityLevel      `json:"level"`
	Activities []CalendarActivity `json:"activities"`
}

// Snapshot bundles all derived dashboard state produced by one refresh.
// A snapshot is immutable after construction; readers receive the whole
// struct and must not mutate it.
type Snapshot struct {
	Summary    DailySummary  `json:"summary"`
	Insights   []Insight     `json:"insights"`
	Calendar   []CalendarDay `json:"calendar"`
	ComputedAt time.Time     `json:"computedAt"`
}
