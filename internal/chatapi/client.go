// Package chatapi provides the HTTP client for the remote conversation store.
package chatapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// Client talks to the conversation store REST API. The store is the system
// of record for persisted sessions and messages; this client never caches.
type Client struct {
	api *upstream.Client
}

// NewClient creates a conversation store client.
func NewClient(baseURL string, timeout time.Duration, token upstream.TokenSource) *Client {
	return &Client{api: upstream.NewClient(baseURL, timeout, token)}
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession asks the store to create a new session and returns its id.
// The id is opaque and stable for the session's lifetime.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp createSessionResponse
	if err := c.api.PostJSON(ctx, "/chat/sessions", nil, &resp); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("create session: %w: empty session id", upstream.ErrMalformedResponse)
	}
	return resp.SessionID, nil
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	// The store has returned the reply under both keys historically.
	Response string `json:"response"`
	Message  string `json:"message"`
}

// AppendAndRespond appends the user's text to the session upstream and
// returns the assistant's reply text.
func (c *Client) AppendAndRespond(ctx context.Context, sessionID, userText string) (string, error) {
	var resp sendMessageResponse
	path := fmt.Sprintf("/chat/sessions/%s/messages", sessionID)
	if err := c.api.PostJSON(ctx, path, sendMessageRequest{Message: userText}, &resp); err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	if resp.Response != "" {
		return resp.Response, nil
	}
	return resp.Message, nil
}

// FetchHistory returns the ordered message history for a session.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	var history []models.Message
	path := fmt.Sprintf("/chat/sessions/%s/history", sessionID)
	if err := c.api.GetJSON(ctx, path, nil, &history); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return history, nil
}

type sessionSummary struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListSessions returns all of the user's sessions, most recent first.
// Message bodies are not included; use FetchHistory for a single session.
func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var raw []sessionSummary
	if err := c.api.GetJSON(ctx, "/chat/sessions", nil, &raw); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]models.Session, 0, len(raw))
	for _, s := range raw {
		updated := s.UpdatedAt
		if updated.IsZero() {
			updated = s.StartTime
		}
		sessions = append(sessions, models.Session{
			SessionID: s.SessionID,
			CreatedAt: s.StartTime,
			UpdatedAt: updated,
		})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActivity().After(sessions[j].LastActivity())
	})
	return sessions, nil
}
