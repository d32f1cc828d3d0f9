// Package wellness derives the daily dashboard state.
package wellness

import (
	"fmt"

	"github.com/aura-wellness/aura-core/pkg/models"
)

// MaxInsights bounds the derived insight list.
const MaxInsights = 3

// DeriveInsights evaluates the insight rules in declaration order and
// returns at most MaxInsights results. Rule order is a contract: the list is
// truncated by declaration position, never re-sorted by priority. The
// activities parameter is part of the rule engine contract even though the
// current rule set reads only the summary.
func DeriveInsights(activities []models.ActivityRecord, summary models.DailySummary) []models.Insight {
	_ = activities

	insights := make([]models.Insight, 0, 6)

	// Rule 1: always present, so the list is never empty.
	insights = append(insights, models.Insight{
		Title:       "Welcome to Your Wellness Journey",
		Description: "Start by tracking your mood or trying a therapy session to receive personalized insights.",
		Priority:    models.PriorityMedium,
	})

	// Rule 2: mood rules are mutually exclusive with each other only.
	if summary.MoodScore == nil {
		insights = append(insights, models.Insight{
			Title:       "Track Your First Mood",
			Description: "Log your mood today to get personalized insights and track your emotional wellbeing.",
			Priority:    models.PriorityHigh,
		})
	} else if *summary.MoodScore < 50 {
		insights = append(insights, models.Insight{
			Title:       "Mood Support Available",
			Description: "Your mood could use some support. Try a calming activity or therapy session.",
			Priority:    models.PriorityHigh,
		})
	}

	// Rule 3
	if summary.ActivityCount == 0 {
		insights = append(insights, models.Insight{
			Title:       "Start with Activities",
			Description: "Try logging your first activity to build healthy habits and track your progress.",
			Priority:    models.PriorityMedium,
		})
	}

	// Rule 4
	if summary.SessionCount > 0 {
		insights = append(insights, models.Insight{
			Title:       "Therapy Progress",
			Description: fmt.Sprintf("You've completed %d therapy sessions! That's great consistency.", summary.SessionCount),
			Priority:    models.PriorityHigh,
		})
	}

	// Rule 5
	if summary.ActivityCount > 0 && summary.CompletionRate == 0 {
		insights = append(insights, models.Insight{
			Title:       "Complete Your Activities",
			Description: fmt.Sprintf("You have %d activities planned. Try completing one to boost your progress!", summary.ActivityCount),
			Priority:    models.PriorityMedium,
		})
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}
