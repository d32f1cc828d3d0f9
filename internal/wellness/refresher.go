// Package wellness derives the daily dashboard state.
package wellness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/aura-wellness/aura-core/internal/sources"
	"github.com/aura-wellness/aura-core/pkg/models"
)

// MoodFetcher supplies today's mood samples.
type MoodFetcher interface {
	FetchToday(ctx context.Context) ([]models.MoodSample, error)
}

// ActivityFetcher supplies activity records.
type ActivityFetcher interface {
	FetchToday(ctx context.Context) ([]models.ActivityRecord, error)
	FetchAll(ctx context.Context, userID string) ([]models.ActivityRecord, error)
}

// SessionLister supplies the session list whose length becomes the summary's
// session count.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
}

// SummaryJournal persists computed summaries for the history view.
// Journal failures never fail a refresh.
type SummaryJournal interface {
	SaveSummary(ctx context.Context, summary models.DailySummary) error
}

// SnapshotPublisher receives each completed snapshot (SSE broadcast, shared
// cache). Publishers must not block.
type SnapshotPublisher interface {
	Publish(snapshot *models.Snapshot)
}

// Refresher drives the periodic dashboard refresh: it fetches the three
// sources concurrently, degrades each failure locally, and swaps in a
// complete new snapshot atomically.
//
// Overlapping refreshes resolve last-write-wins by completion order, not by
// trigger order. A stale refresh finishing after a newer one can briefly win;
// this is an accepted trade-off, not a bug to fix with sequence numbers.
type Refresher struct {
	mood       MoodFetcher
	activities ActivityFetcher
	chat       SessionLister
	userID     string

	journal    SummaryJournal
	publishers []SnapshotPublisher

	now func() time.Time

	mu       sync.RWMutex
	current  *models.Snapshot
	interval time.Duration
	cron     *cron.Cron
	entryID  cron.EntryID

	refreshes      metric.Int64Counter
	sourceFailures metric.Int64Counter
}

// RefresherConfig wires a Refresher's collaborators.
type RefresherConfig struct {
	Mood       MoodFetcher
	Activities ActivityFetcher
	Chat       SessionLister
	UserID     string
	Interval   time.Duration
	Journal    SummaryJournal      // optional
	Publishers []SnapshotPublisher // optional
}

// NewRefresher creates a Refresher. Call Start to begin the periodic loop,
// or Refresh directly for an explicit one-shot recompute.
func NewRefresher(cfg RefresherConfig) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	meter := otel.Meter("aura-core/wellness")
	refreshes, _ := meter.Int64Counter("aura_dashboard_refreshes_total")
	failures, _ := meter.Int64Counter("aura_source_failures_total")

	return &Refresher{
		mood:           cfg.Mood,
		activities:     cfg.Activities,
		chat:           cfg.Chat,
		userID:         cfg.UserID,
		journal:        cfg.Journal,
		publishers:     cfg.Publishers,
		now:            time.Now,
		interval:       interval,
		refreshes:      refreshes,
		sourceFailures: failures,
	}
}

// Refresh recomputes the dashboard snapshot from the upstream sources.
// It is total: every source failure degrades only its own fields, so the
// returned snapshot is always complete and well-formed.
func (r *Refresher) Refresh(ctx context.Context) *models.Snapshot {
	var (
		samples      []models.MoodSample
		todays       []models.ActivityRecord
		allActivity  []models.ActivityRecord
		sessionCount int
	)

	// Each fetch swallows its own error: a failed source must never abort
	// or cancel the others, so no closure returns non-nil.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if samples, err = r.mood.FetchToday(gctx); err != nil {
			r.sourceFailure(gctx, "mood", err)
			samples = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if todays, err = r.activities.FetchToday(gctx); err != nil {
			r.sourceFailure(gctx, "activity_today", err)
			todays = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if allActivity, err = r.activities.FetchAll(gctx, r.userID); err != nil {
			r.sourceFailure(gctx, "activity_all", err)
			allActivity = nil
		}
		return nil
	})
	g.Go(func() error {
		sessions, err := r.chat.ListSessions(gctx)
		if err != nil {
			r.sourceFailure(gctx, "sessions", err)
			return nil
		}
		sessionCount = len(sessions)
		return nil
	})
	_ = g.Wait()

	now := r.now()
	summary := Aggregate(todays, sources.TodayMood(samples), sessionCount, now)
	snapshot := &models.Snapshot{
		Summary:    summary,
		Insights:   DeriveInsights(todays, summary),
		Calendar:   Bucketize(allActivity, now),
		ComputedAt: now,
	}

	// Atomic replace: readers see either the previous complete snapshot or
	// this one, never a partial mix.
	r.mu.Lock()
	r.current = snapshot
	r.mu.Unlock()

	r.refreshes.Add(ctx, 1)
	log.Debug().
		Int("activityCount", summary.ActivityCount).
		Int("sessionCount", summary.SessionCount).
		Int("insights", len(snapshot.Insights)).
		Msg("Dashboard snapshot refreshed")

	if r.journal != nil {
		if err := r.journal.SaveSummary(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("Failed to journal daily summary")
		}
	}
	for _, p := range r.publishers {
		p.Publish(snapshot)
	}

	return snapshot
}

func (r *Refresher) sourceFailure(ctx context.Context, source string, err error) {
	r.sourceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	log.Warn().Err(err).Str("source", source).Msg("Source fetch failed, degrading its fields")
}

// Snapshot returns the latest complete snapshot, or nil before the first
// refresh finishes. Returned snapshots are read-only.
func (r *Refresher) Snapshot() *models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Start runs an initial refresh and schedules the periodic loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cron != nil {
		r.mu.Unlock()
		return nil
	}
	c := cron.New()
	entryID, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.Refresh(ctx)
	})
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	r.cron = c
	r.entryID = entryID
	r.mu.Unlock()

	c.Start()
	go r.Refresh(ctx)

	log.Info().Dur("interval", r.interval).Msg("Dashboard refresh loop started")
	return nil
}

// SetInterval reschedules the periodic refresh, used by config reload.
func (r *Refresher) SetInterval(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval: %s", interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.interval = interval
	if r.cron == nil {
		return nil
	}
	r.cron.Remove(r.entryID)
	entryID, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		r.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("reschedule refresh: %w", err)
	}
	r.entryID = entryID

	log.Info().Dur("interval", interval).Msg("Dashboard refresh interval updated")
	return nil
}

// Stop halts the periodic loop. In-flight refreshes are not cancelled; a
// refresh completing after Stop still swaps in its snapshot.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}
