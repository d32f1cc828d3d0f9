// Package session provides conversation session lifecycle management for
// aura-core.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// fakeStore is a configurable in-memory StoreClient for unit tests.
type fakeStore struct {
	mu            sync.Mutex
	nextSessionID string
	createErr     error
	replyFn       func(sessionID, text string) (string, error)
	history       map[string][]models.Message
	historyErr    error
	historyCalls  atomic.Int64
	sessions      []models.Session
	listErr       error

	// sendGate, when non-nil, blocks AppendAndRespond until closed.
	sendGate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextSessionID: "sess-1",
		history:       make(map[string][]models.Message),
		replyFn: func(sessionID, text string) (string, error) {
			return "reply to: " + text, nil
		},
	}
}

func (f *fakeStore) CreateSession(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.nextSessionID, nil
}

func (f *fakeStore) AppendAndRespond(ctx context.Context, sessionID, text string) (string, error) {
	if f.sendGate != nil {
		<-f.sendGate
	}
	f.mu.Lock()
	fn := f.replyFn
	f.mu.Unlock()
	return fn(sessionID, text)
}

func (f *fakeStore) FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	f.historyCalls.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[sessionID], nil
}

func (f *fakeStore) ListSessions(ctx context.Context) ([]models.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions, nil
}

// ManagerSuite is a test suite for Manager operations.
type ManagerSuite struct {
	suite.Suite
	store   *fakeStore
	manager *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.store = newFakeStore()
	s.manager = NewManager(s.store)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

// TestStartSession tests session creation and registration.
func (s *ManagerSuite) TestStartSession() {
	id, err := s.manager.StartSession(context.Background())
	s.NoError(err)
	s.Equal("sess-1", id)
	s.Equal(1, s.manager.ActiveSessionCount())
	s.Empty(s.manager.Messages(id))
}

// TestStartSession_UpstreamFailureSurfaces tests that creation failure is
// fatal to the action.
func (s *ManagerSuite) TestStartSession_UpstreamFailureSurfaces() {
	s.store.createErr = fmt.Errorf("create: %w", upstream.ErrUpstreamUnavailable)

	_, err := s.manager.StartSession(context.Background())
	s.Error(err)
	s.ErrorIs(err, upstream.ErrUpstreamUnavailable)
	s.Equal(0, s.manager.ActiveSessionCount())
}

// TestSendMessage_Ordering tests that each user message is immediately
// followed by its assistant reply, in call order.
func (s *ManagerSuite) TestSendMessage_Ordering() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)

	for i := 1; i <= 3; i++ {
		_, err := s.manager.SendMessage(ctx, id, fmt.Sprintf("message %d", i))
		s.Require().NoError(err)
	}

	msgs := s.manager.Messages(id)
	s.Require().Len(msgs, 6)
	for i := 0; i < 3; i++ {
		user := msgs[2*i]
		assistant := msgs[2*i+1]
		s.Equal(models.RoleUser, user.Role)
		s.Equal(fmt.Sprintf("message %d", i+1), user.Content)
		s.Equal(models.RoleAssistant, assistant.Role)
		s.Equal("reply to: "+user.Content, assistant.Content)
	}
}

// TestSendMessage_FallbackOnFailure tests the degraded-mode reply: the user
// message stays and the fixed fallback is appended, with no error returned.
func (s *ManagerSuite) TestSendMessage_FallbackOnFailure() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)

	s.store.replyFn = func(sessionID, text string) (string, error) {
		return "", errors.New("connection reset")
	}

	reply, err := s.manager.SendMessage(ctx, id, "are you there?")
	s.NoError(err)
	s.Equal(FallbackReply, reply.Content)

	msgs := s.manager.Messages(id)
	s.Require().Len(msgs, 2)
	s.Equal(models.RoleUser, msgs[0].Role)
	s.Equal("are you there?", msgs[0].Content)
	s.Equal(models.RoleAssistant, msgs[1].Role)
	s.Equal(FallbackReply, msgs[1].Content)

	s.Error(s.manager.LastError(id))
}

// TestSendMessage_EmptyReplyDegrades tests the supportive default for an
// empty-but-successful reply.
func (s *ManagerSuite) TestSendMessage_EmptyReplyDegrades() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)

	s.store.replyFn = func(sessionID, text string) (string, error) {
		return "", nil
	}

	reply, err := s.manager.SendMessage(ctx, id, "hello")
	s.NoError(err)
	s.Equal(EmptyReply, reply.Content)
}

// TestSendMessage_UnknownSession tests the NotFound contract.
func (s *ManagerSuite) TestSendMessage_UnknownSession() {
	_, err := s.manager.SendMessage(context.Background(), "ghost", "hi")
	s.Error(err)
	s.ErrorIs(err, upstream.ErrNotFound)
}

// TestSendMessage_SingleFlight tests that a concurrent send on the same
// session is rejected while the first is outstanding.
func (s *ManagerSuite) TestSendMessage_SingleFlight() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)

	s.store.sendGate = make(chan struct{})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = s.manager.SendMessage(ctx, id, "first")
	}()

	// Wait until the first send has echoed the user message.
	s.Eventually(func() bool {
		return len(s.manager.Messages(id)) == 1
	}, time.Second, time.Millisecond)

	_, err = s.manager.SendMessage(ctx, id, "second")
	s.ErrorIs(err, ErrSendInFlight)

	close(s.store.sendGate)
	<-firstDone

	// Only the first exchange landed.
	msgs := s.manager.Messages(id)
	s.Len(msgs, 2)
}

// TestResumeSession_Idempotent tests that repeated resumes reuse the last
// successful fetch.
func (s *ManagerSuite) TestResumeSession_Idempotent() {
	ctx := context.Background()
	s.store.history["sess-9"] = []models.Message{
		{Role: models.RoleUser, Content: "old message", Timestamp: time.Now()},
		{Role: models.RoleAssistant, Content: "old reply", Timestamp: time.Now()},
	}

	first := s.manager.ResumeSession(ctx, "sess-9")
	second := s.manager.ResumeSession(ctx, "sess-9")

	s.Equal(first, second)
	s.Len(first, 2)
	s.Equal(int64(1), s.store.historyCalls.Load())
}

// TestResumeSession_FailureDegradesToEmpty tests the best-effort history
// contract: empty list, observable failure.
func (s *ManagerSuite) TestResumeSession_FailureDegradesToEmpty() {
	ctx := context.Background()
	s.store.historyErr = fmt.Errorf("fetch: %w", upstream.ErrUpstreamUnavailable)

	msgs := s.manager.ResumeSession(ctx, "sess-9")
	s.Empty(msgs)
	s.ErrorIs(s.manager.LastError("sess-9"), upstream.ErrUpstreamUnavailable)
}

// TestResumeSession_RetriesAfterFailure tests that a later navigation can
// recover once the store comes back.
func (s *ManagerSuite) TestResumeSession_RetriesAfterFailure() {
	ctx := context.Background()
	s.store.historyErr = errors.New("down")

	s.Empty(s.manager.ResumeSession(ctx, "sess-9"))

	s.store.historyErr = nil
	s.store.history["sess-9"] = []models.Message{
		{Role: models.RoleUser, Content: "recovered", Timestamp: time.Now()},
	}

	msgs := s.manager.ResumeSession(ctx, "sess-9")
	s.Len(msgs, 1)
	s.NoError(s.manager.LastError("sess-9"))
}

// TestListSessions_MostRecentFirst tests navigation ordering.
func (s *ManagerSuite) TestListSessions_MostRecentFirst() {
	now := time.Now()
	s.store.sessions = []models.Session{
		{SessionID: "a", CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour)},
		{SessionID: "b", CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now.Add(-1 * time.Hour)},
		{SessionID: "c", CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
	}

	sessions := s.manager.ListSessions(context.Background())
	s.Require().Len(sessions, 3)
	s.Equal("b", sessions[0].SessionID)
	s.Equal("a", sessions[1].SessionID)
	s.Equal("c", sessions[2].SessionID)
}

// TestListSessions_FallsBackToLocal tests navigation survival when the
// remote list is unavailable.
func (s *ManagerSuite) TestListSessions_FallsBackToLocal() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)
	_, err = s.manager.SendMessage(ctx, id, "hello")
	s.Require().NoError(err)

	s.store.listErr = errors.New("listing down")

	sessions := s.manager.ListSessions(ctx)
	s.Require().Len(sessions, 1)
	s.Equal(id, sessions[0].SessionID)
	s.Len(sessions[0].Messages, 2)
}

// TestMessages_ReturnsCopy tests that callers cannot mutate manager state
// through a returned snapshot.
func (s *ManagerSuite) TestMessages_ReturnsCopy() {
	ctx := context.Background()
	id, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)
	_, err = s.manager.SendMessage(ctx, id, "immutable?")
	s.Require().NoError(err)

	snapshot := s.manager.Messages(id)
	snapshot[0].Content = "mutated"

	fresh := s.manager.Messages(id)
	assert.Equal(s.T(), "immutable?", fresh[0].Content)
}

// TestSendMessage_CrossSessionIndependence tests that sends on different
// sessions do not serialize against each other.
func (s *ManagerSuite) TestSendMessage_CrossSessionIndependence() {
	ctx := context.Background()

	s.store.nextSessionID = "sess-a"
	idA, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)
	s.store.nextSessionID = "sess-b"
	idB, err := s.manager.StartSession(ctx)
	s.Require().NoError(err)

	s.store.sendGate = make(chan struct{})

	done := make(chan struct{}, 2)
	go func() { _, _ = s.manager.SendMessage(ctx, idA, "from a"); done <- struct{}{} }()

	s.Eventually(func() bool {
		return len(s.manager.Messages(idA)) == 1
	}, time.Second, time.Millisecond)

	// A send on session B proceeds while A's send is outstanding.
	go func() { _, _ = s.manager.SendMessage(ctx, idB, "from b"); done <- struct{}{} }()
	s.Eventually(func() bool {
		return len(s.manager.Messages(idB)) == 1
	}, time.Second, time.Millisecond)

	close(s.store.sendGate)
	<-done
	<-done

	s.Len(s.manager.Messages(idA), 2)
	s.Len(s.manager.Messages(idB), 2)
}
