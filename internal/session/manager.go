// Package session provides conversation session lifecycle management for
// aura-core: identity, message ordering, optimistic echo, and resumption.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/pkg/models"
)

const (
	// FallbackReply is appended as the assistant message when the remote
	// call fails. The user's own message is preserved regardless.
	FallbackReply = "I apologize, but I'm having trouble connecting right now. Please try again in a moment."

	// EmptyReply is used when the remote call succeeds but returns no text.
	EmptyReply = "I'm here to support you. Could you tell me more about what's on your mind?"
)

// ErrSendInFlight is returned when a send is attempted on a session that
// already has an outstanding send. The manager assumes single-flight per
// session and rejects rather than queueing.
var ErrSendInFlight = errors.New("send already in flight for this session")

// StoreClient is the conversation store contract the manager depends on.
type StoreClient interface {
	CreateSession(ctx context.Context) (string, error)
	AppendAndRespond(ctx context.Context, sessionID, userText string) (string, error)
	FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
}

// activeSession is the in-memory state for one session. The message slice is
// mutated only by the manager's own sequential appends for that session.
type activeSession struct {
	id            string
	createdAt     time.Time
	updatedAt     time.Time
	messages      []models.Message
	historyLoaded bool
	lastErr       error
	sending       bool
}

// Manager owns in-memory session identity and message ordering. All public
// operations return either a value or a defined degraded value; no upstream
// error escapes except where the contract surfaces it (StartSession).
type Manager struct {
	client StoreClient
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*activeSession

	// historySF collapses concurrent history loads for the same session id
	// into a single upstream fetch.
	historySF singleflight.Group

	fallbackReplies metric.Int64Counter
	historyFailures metric.Int64Counter
}

// NewManager creates a session manager backed by the given store client.
func NewManager(client StoreClient) *Manager {
	meter := otel.Meter("aura-core/session")
	fallbacks, _ := meter.Int64Counter("aura_session_fallback_replies_total")
	histFails, _ := meter.Int64Counter("aura_session_history_failures_total")

	return &Manager{
		client:          client,
		now:             time.Now,
		sessions:        make(map[string]*activeSession),
		fallbackReplies: fallbacks,
		historyFailures: histFails,
	}
}

// StartSession creates a new session via the store. Creation failure is fatal
// to this action and surfaces to the caller.
func (m *Manager) StartSession(ctx context.Context) (string, error) {
	id, err := m.client.CreateSession(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Session creation failed")
		return "", fmt.Errorf("start session: %w", err)
	}

	now := m.now()
	m.mu.Lock()
	m.sessions[id] = &activeSession{
		id:            id,
		createdAt:     now,
		updatedAt:     now,
		historyLoaded: true, // new session has no history to load
	}
	m.mu.Unlock()

	log.Info().Str("sessionId", id).Msg("Session started")
	return id, nil
}

// ResumeSession loads a session's history, best effort. A fetch failure
// yields an empty message list rather than an error; the failure stays
// observable via LastError and a diagnostic log event. Repeated calls are
// idempotent and served from the last successful fetch.
func (m *Manager) ResumeSession(ctx context.Context, sessionID string) []models.Message {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	loaded := ok && sess.historyLoaded
	m.mu.RUnlock()

	if loaded {
		return m.Messages(sessionID)
	}

	// Collapse concurrent resumes for the same id into one fetch.
	_, _, _ = m.historySF.Do(sessionID, func() (any, error) {
		m.loadHistory(ctx, sessionID)
		return nil, nil
	})

	return m.Messages(sessionID)
}

func (m *Manager) loadHistory(ctx context.Context, sessionID string) {
	history, err := m.client.FetchHistory(ctx, sessionID)

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		// First navigation to an unresolved session reference registers it.
		sess = &activeSession{id: sessionID, createdAt: now, updatedAt: now}
		m.sessions[sessionID] = sess
	}

	if err != nil {
		sess.lastErr = err
		m.historyFailures.Add(ctx, 1)
		log.Warn().
			Err(err).
			Str("sessionId", sessionID).
			Str("eventId", uuid.NewString()).
			Msg("History load failed, degrading to empty history")
		return
	}

	sess.messages = history
	sess.historyLoaded = true
	sess.lastErr = nil
	sess.updatedAt = now
}

// SendMessage appends the user's text locally before the network round trip
// (optimistic echo), then appends the assistant reply. On remote failure the
// fixed fallback reply is appended instead; the echoed user message is never
// retracted and no error is returned for the degraded path.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (models.Message, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return models.Message{}, fmt.Errorf("send message: %w: session %q", upstream.ErrNotFound, sessionID)
	}
	if sess.sending {
		m.mu.Unlock()
		return models.Message{}, ErrSendInFlight
	}
	sess.sending = true

	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: m.now(),
	}
	sess.messages = append(sess.messages, userMsg)
	sess.updatedAt = userMsg.Timestamp
	m.mu.Unlock()

	reply, err := m.client.AppendAndRespond(ctx, sessionID, text)

	content := reply
	if err != nil {
		m.fallbackReplies.Add(ctx, 1)
		log.Warn().
			Err(err).
			Str("sessionId", sessionID).
			Msg("Remote send failed, appending fallback reply")
		content = FallbackReply
	} else if content == "" {
		content = EmptyReply
	}

	assistantMsg := models.Message{
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: m.now(),
	}

	m.mu.Lock()
	sess.messages = append(sess.messages, assistantMsg)
	sess.updatedAt = assistantMsg.Timestamp
	if err != nil {
		sess.lastErr = err
	} else {
		sess.lastErr = nil
	}
	sess.sending = false
	m.mu.Unlock()

	return assistantMsg, nil
}

// ListSessions returns session summaries most-recent-first. The remote list
// is preferred; on upstream failure the locally known sessions are returned
// so navigation keeps working.
func (m *Manager) ListSessions(ctx context.Context) []models.Session {
	remote, err := m.client.ListSessions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Session list fetch failed, serving local sessions")
		return m.localSessions()
	}

	// Overlay local message snapshots onto remote summaries; local state is
	// authoritative for sessions this manager is actively driving.
	m.mu.RLock()
	for i := range remote {
		if sess, ok := m.sessions[remote[i].SessionID]; ok {
			remote[i].Messages = copyMessages(sess.messages)
			if sess.updatedAt.After(remote[i].UpdatedAt) {
				remote[i].UpdatedAt = sess.updatedAt
			}
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(remote, func(i, j int) bool {
		return remote[i].LastActivity().After(remote[j].LastActivity())
	})
	return remote
}

func (m *Manager) localSessions() []models.Session {
	m.mu.RLock()
	sessions := make([]models.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, models.Session{
			SessionID: sess.id,
			Messages:  copyMessages(sess.messages),
			CreatedAt: sess.createdAt,
			UpdatedAt: sess.updatedAt,
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastActivity().After(sessions[j].LastActivity())
	})
	return sessions
}

// Messages returns a read-only snapshot of a session's message sequence.
// Unknown sessions yield an empty slice.
func (m *Manager) Messages(sessionID string) []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return []models.Message{}
	}
	return copyMessages(sess.messages)
}

// LastError reports the most recent upstream failure recorded for a session,
// or nil. It exists so callers can surface degraded-mode diagnostics.
func (m *Manager) LastError(sessionID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[sessionID]; ok {
		return sess.lastErr
	}
	return nil
}

// ActiveSessionCount returns the number of sessions held in memory.
func (m *Manager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func copyMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}
