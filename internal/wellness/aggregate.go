// Package wellness derives the daily dashboard state: summary aggregation,
// insight rules, the rolling activity calendar, and the refresh loop that
// ties them to the upstream sources.
package wellness

import (
	"time"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// inDay reports whether ts falls within the half-open interval
// [startOfDay, startOfDay+24h) for the given day.
func inDay(ts, day time.Time) bool {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)
	return !ts.Before(start) && ts.Before(end)
}

// Aggregate merges the source fetcher outputs into one DailySummary.
//
// The function is total: any absent input degrades the corresponding field
// to nil/zero instead of failing. Completion rate is 100 when any activity
// exists today and 0 otherwise; this presence-based rule reproduces the
// product's behavior and is intentionally not a completed/total ratio.
func Aggregate(activities []models.ActivityRecord, mood *models.MoodSample, sessionCount int, now time.Time) models.DailySummary {
	var todayCount int
	for _, a := range activities {
		if inDay(a.Timestamp, now) {
			todayCount++
		}
	}

	completionRate := 0
	if todayCount > 0 {
		completionRate = 100
	}

	var moodScore *int
	if mood != nil {
		score := mood.Score
		moodScore = &score
	}

	if sessionCount < 0 {
		sessionCount = 0
	}

	return models.DailySummary{
		MoodScore:      moodScore,
		CompletionRate: completionRate,
		SessionCount:   sessionCount,
		ActivityCount:  todayCount,
		ComputedAt:     now,
	}
}
