// Package sources provides the independent upstream accessors feeding the
// wellness aggregation: mood samples and activity records. Each accessor has
// its own timeout and failure domain; one source failing never blocks the
// others.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// MoodSource fetches mood samples from the mood service.
type MoodSource struct {
	api *upstream.Client
}

// NewMoodSource creates a mood source client.
func NewMoodSource(baseURL string, timeout time.Duration, token upstream.TokenSource) *MoodSource {
	return &MoodSource{api: upstream.NewClient(baseURL, timeout, token)}
}

// FetchToday returns today's mood samples in source order. The source may
// return zero, one, or many samples for the day.
func (s *MoodSource) FetchToday(ctx context.Context) ([]models.MoodSample, error) {
	var samples []models.MoodSample
	if err := s.api.GetJSON(ctx, "/mood/today", nil, &samples); err != nil {
		return nil, fmt.Errorf("fetch mood: %w", err)
	}
	return samples, nil
}

type saveMoodRequest struct {
	Mood int    `json:"mood"`
	Note string `json:"note"`
}

// SaveMood records a mood score upstream.
func (s *MoodSource) SaveMood(ctx context.Context, score int, note string) error {
	if err := s.api.PostJSON(ctx, "/mood", saveMoodRequest{Mood: score, Note: note}, nil); err != nil {
		return fmt.Errorf("save mood: %w", err)
	}
	return nil
}

// TodayMood reduces a sample list to "today's mood": the first sample in
// whatever order the source provided, or nil when none exist. This is a
// deliberate simple policy, not a computed aggregate such as mean or latest.
func TodayMood(samples []models.MoodSample) *models.MoodSample {
	if len(samples) == 0 {
		return nil
	}
	sample := samples[0]
	return &sample
}
