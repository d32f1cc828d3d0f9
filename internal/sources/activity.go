// Package sources provides the independent upstream accessors feeding the
// wellness aggregation.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// ActivitySource fetches and logs activity records.
type ActivitySource struct {
	api *upstream.Client
}

// NewActivitySource creates an activity source client.
func NewActivitySource(baseURL string, timeout time.Duration, token upstream.TokenSource) *ActivitySource {
	return &ActivitySource{api: upstream.NewClient(baseURL, timeout, token)}
}

// FetchToday returns the activities recorded for the current day.
func (s *ActivitySource) FetchToday(ctx context.Context) ([]models.ActivityRecord, error) {
	var activities []models.ActivityRecord
	if err := s.api.GetJSON(ctx, "/activity/today", nil, &activities); err != nil {
		return nil, fmt.Errorf("fetch today's activities: %w", err)
	}
	return activities, nil
}

// FetchAll returns the full activity history for a user, used by the
// calendar bucketizer.
func (s *ActivitySource) FetchAll(ctx context.Context, userID string) ([]models.ActivityRecord, error) {
	q := url.Values{}
	q.Set("userId", userID)

	var activities []models.ActivityRecord
	if err := s.api.GetJSON(ctx, "/activity", q, &activities); err != nil {
		return nil, fmt.Errorf("fetch activities: %w", err)
	}
	return activities, nil
}

type logActivityRequest struct {
	ID       string              `json:"id"`
	Type     models.ActivityType `json:"type"`
	Name     string              `json:"name"`
	Duration int                 `json:"duration"`
}

// Log records a new activity upstream and returns its assigned id.
func (s *ActivitySource) Log(ctx context.Context, typ models.ActivityType, name string, duration int) (string, error) {
	req := logActivityRequest{
		ID:       uuid.NewString(),
		Type:     typ,
		Name:     name,
		Duration: duration,
	}
	if err := s.api.PostJSON(ctx, "/activity", req, nil); err != nil {
		return "", fmt.Errorf("log activity: %w", err)
	}
	return req.ID, nil
}
