// Package worker provides the main worker service for aura-core.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/aura-wellness/aura-core/internal/activities"
	"github.com/aura-wellness/aura-core/internal/cache"
	"github.com/aura-wellness/aura-core/internal/config"
	"github.com/aura-wellness/aura-core/internal/db"
	"github.com/aura-wellness/aura-core/internal/session"
	"github.com/aura-wellness/aura-core/internal/sources"
	"github.com/aura-wellness/aura-core/internal/wellness"
	"github.com/aura-wellness/aura-core/internal/worker/sse"
)

// Service is the aura worker: it owns the HTTP surface, the session manager,
// the dashboard refresher, and the local journals.
type Service struct {
	version string
	config  *config.Config

	store        *db.Store
	summaryStore *db.SummaryStore
	moodStore    *db.MoodStore

	sessionManager *session.Manager
	moodSource     *sources.MoodSource
	activitySource *sources.ActivitySource
	refresher      *wellness.Refresher
	catalog        *activities.Catalog
	snapshotCache  *cache.SnapshotCache
	sseBroadcaster *sse.Broadcaster

	router    chi.Router
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	ready     atomic.Bool
}

// Deps bundles the collaborators New wires into a Service.
type Deps struct {
	Version        string
	Config         *config.Config
	Store          *db.Store
	SummaryStore   *db.SummaryStore
	MoodStore      *db.MoodStore
	SessionManager *session.Manager
	MoodSource     *sources.MoodSource
	ActivitySource *sources.ActivitySource
	Refresher      *wellness.Refresher
	Catalog        *activities.Catalog
	SnapshotCache  *cache.SnapshotCache // optional
	Broadcaster    *sse.Broadcaster
}

// New creates the worker service and mounts its routes.
func New(deps Deps) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		version:        deps.Version,
		config:         deps.Config,
		store:          deps.Store,
		summaryStore:   deps.SummaryStore,
		moodStore:      deps.MoodStore,
		sessionManager: deps.SessionManager,
		moodSource:     deps.MoodSource,
		activitySource: deps.ActivitySource,
		refresher:      deps.Refresher,
		catalog:        deps.Catalog,
		snapshotCache:  deps.SnapshotCache,
		sseBroadcaster: deps.Broadcaster,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()
	return svc
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)
	s.router.Get("/api/events", s.sseBroadcaster.HandleSSE)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)

		r.Route("/api/chat", func(r chi.Router) {
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/suggestions", s.handleSuggestions)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/messages", s.handleGetMessages)
				r.Post("/messages", s.handleSendMessage)
			})
		})

		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/", s.handleDashboard)
			r.Post("/refresh", s.handleDashboardRefresh)
			r.Get("/history", s.handleDashboardHistory)
		})

		r.Route("/api/activities", func(r chi.Router) {
			r.Get("/catalog", s.handleActivityCatalog)
			r.Get("/", s.handleListActivities)
			r.Post("/", s.handleLogActivity)
		})

		r.Post("/api/mood", s.handleRecordMood)
	})
}

// Start begins serving and marks the service ready.
func (s *Service) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.config.WorkerPort)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.ready.Store(true)
	log.Info().Str("addr", addr).Str("version", s.version).Msg("Worker listening")

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.cancel()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the mounted routes, used by tests and by embedders.
func (s *Service) Router() chi.Router {
	return s.router
}

// requireReady rejects requests until startup wiring has finished.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, http.StatusServiceUnavailable, "service not ready")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	if !s.ready.Load() {
		status = "starting"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeError(w, http.StatusServiceUnavailable, "service not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
