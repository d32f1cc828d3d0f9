// Package wellness derives the daily dashboard state.
package wellness

import (
	"time"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// CalendarDays is the fixed length of the rolling activity calendar.
const CalendarDays = 28

// dayTimeFormat renders an activity's time-of-day for display ("9:30 AM").
const dayTimeFormat = "3:04 PM"

// levelFor classifies a day by its activity count.
func levelFor(count int) models.ActivityLevel {
	switch {
	case count == 0:
		return models.LevelNone
	case count <= 2:
		return models.LevelLow
	case count <= 4:
		return models.LevelMedium
	default:
		return models.LevelHigh
	}
}

// Bucketize distributes activities into the 28 most recent calendar days,
// oldest first, ending at today inclusive. Each day uses the half-open
// interval [midnight, next midnight). The whole window is regenerated on
// every call; output is deterministic for a fixed activity list and now.
func Bucketize(activities []models.ActivityRecord, now time.Time) []models.CalendarDay {
	days := make([]models.CalendarDay, 0, CalendarDays)

	for i := CalendarDays - 1; i >= 0; i-- {
		date := startOfDay(now.AddDate(0, 0, -i))

		var bucket []models.CalendarActivity
		for _, a := range activities {
			if !inDay(a.Timestamp, date) {
				continue
			}
			bucket = append(bucket, models.CalendarActivity{
				Type:      a.Type,
				Name:      a.Name,
				Completed: a.Completed,
				Time:      a.Timestamp.Format(dayTimeFormat),
			})
		}

		days = append(days, models.CalendarDay{
			Date:       date,
			Level:      levelFor(len(bucket)),
			Activities: bucket,
		})
	}

	return days
}
