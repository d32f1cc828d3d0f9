package worker

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/aura-wellness/aura-core/internal/session"
	"github.com/aura-wellness/aura-core/internal/upstream"
	"github.com/aura-wellness/aura-core/internal/wellness"
	"github.com/aura-wellness/aura-core/internal/worker/sse"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// defaultUserID scopes activity queries when the client does not send one.
const defaultUserID = "default-user"

// suggestedQuestions are the conversation openers shown on an empty session.
var suggestedQuestions = []string{
	"How can I manage my anxiety better?",
	"I've been feeling overwhelmed lately",
	"Can we talk about improving sleep?",
	"I need help with work-life balance",
}

// NewSnapshotPublisher adapts the SSE broadcaster into a snapshot publisher
// for the dashboard refresher.
func NewSnapshotPublisher(b *sse.Broadcaster) wellness.SnapshotPublisher {
	return snapshotEvents{b: b}
}

type snapshotEvents struct {
	b *sse.Broadcaster
}

func (p snapshotEvents) Publish(snapshot *models.Snapshot) {
	p.b.Broadcast(sse.Event{Type: sse.EventSnapshot, Payload: snapshot})
}

// --- Chat ---

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.sessionManager.StartSession(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Session creation failed")
		writeError(w, http.StatusBadGateway, "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sessionID})
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessionManager.ListSessions(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Service) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestedQuestions})
}

func (s *Service) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages := s.sessionManager.ResumeSession(r.Context(), sessionID)
	resp := map[string]interface{}{
		"sessionId": sessionID,
		"messages":  messages,
	}
	if err := s.sessionManager.LastError(sessionID); err != nil {
		resp["degraded"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *Service) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.sessionManager.SendMessage(r.Context(), sessionID, req.Message)
	switch {
	case errors.Is(err, session.ErrSendInFlight):
		writeError(w, http.StatusConflict, "a message is already being sent for this session")
		return
	case errors.Is(err, upstream.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown session")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "could not send message")
		return
	}

	s.sseBroadcaster.Broadcast(sse.Event{Type: sse.EventReply, Payload: map[string]interface{}{
		"sessionId": sessionID,
		"message":   reply,
	}})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"message":   reply,
	})
}

// --- Dashboard ---

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := s.refresher.Snapshot()
	if snapshot == nil {
		// Warm start: try the shared cache before computing locally.
		if cached, err := s.snapshotCache.Latest(r.Context()); err == nil && cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
		snapshot = s.refresher.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot := s.refresher.Refresh(r.Context())
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleDashboardHistory(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.summaryStore.RecentSummaries(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("History query failed")
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// --- Activities ---

func (s *Service) handleActivityCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": s.catalog.All()})
}

func (s *Service) handleListActivities(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = defaultUserID
	}

	records, err := s.activitySource.FetchAll(r.Context(), userID)
	if err != nil {
		log.Warn().Err(err).Msg("Activity fetch failed")
		writeError(w, http.StatusBadGateway, "activity source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": records})
}

type logActivityRequest struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

func (s *Service) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req logActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	typ := models.ActivityType(req.Type)
	switch typ {
	case models.ActivityGame, models.ActivityTherapy, models.ActivityMood,
		models.ActivityMeditation, models.ActivityBreathing, models.ActivityJournaling:
	default:
		writeError(w, http.StatusBadRequest, "unknown activity type")
		return
	}

	duration := req.Duration
	if duration <= 0 {
		if def, ok := s.catalog.Get(req.Name); ok {
			duration = def.DefaultDuration
		}
	}

	id, err := s.activitySource.Log(r.Context(), typ, req.Name, duration)
	if err != nil {
		log.Warn().Err(err).Msg("Activity log failed")
		writeError(w, http.StatusBadGateway, "activity source unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// --- Mood ---

type recordMoodRequest struct {
	Score int    `json:"score"`
	Note  string `json:"note"`
}

func (s *Service) handleRecordMood(w http.ResponseWriter, r *http.Request) {
	var req recordMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score < 0 || req.Score > 100 {
		writeError(w, http.StatusBadRequest, "score must be between 0 and 100")
		return
	}

	// Journal locally first so the check-in survives an upstream outage.
	if err := s.moodStore.RecordMood(r.Context(), req.Score, req.Note, time.Now()); err != nil {
		log.Error().Err(err).Msg("Local mood journal failed")
	}

	if err := s.moodSource.SaveMood(r.Context(), req.Score, req.Note); err != nil {
		log.Warn().Err(err).Msg("Upstream mood save failed, kept local copy")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "saved locally"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}
