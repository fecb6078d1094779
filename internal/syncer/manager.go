// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package syncer keeps the local mirror current by fetching listing pages on
a cron schedule and feeding them through the tracker's page ingest.

Thread Safety:
  - syncMu: prevents overlapping runs; a run requested while another is in
    flight fails fast with ErrSyncInProgress
  - mu: protects scheduler state and the last result
*/
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
	"github.com/tomtom215/e6tracker/internal/remote"
	"github.com/tomtom215/e6tracker/internal/tracker"
)

// ErrSyncInProgress is returned by TriggerSync while a run is active.
var ErrSyncInProgress = errors.New("sync already in progress")

// Lister fetches one listing page.
type Lister interface {
	ListPosts(ctx context.Context, opts remote.ListOptions) ([]json.RawMessage, error)
}

// PageIngester applies one listing page to the store.
type PageIngester interface {
	IngestPage(ctx context.Context, raws []json.RawMessage) (*tracker.PageResult, error)
}

// Result describes one sync run.
type Result struct {
	RunID      string    `json:"run_id"`
	Tags       string    `json:"tags"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"`
	Posts      int       `json:"posts"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// Status is the sync state served by the API.
type Status struct {
	Enabled    bool      `json:"enabled"`
	Schedule   string    `json:"schedule"`
	Running    bool      `json:"running"`
	InProgress bool      `json:"in_progress"`
	LastSync   time.Time `json:"last_sync"`
	NextRun    time.Time `json:"next_run"`
	LastResult *Result   `json:"last_result,omitempty"`
}

// Manager runs listing syncs on a schedule and on demand.
type Manager struct {
	cfg      *config.Config
	lister   Lister
	ingester PageIngester

	syncMu sync.Mutex

	mu         sync.RWMutex
	running    bool
	inProgress bool
	cron       *cron.Cron
	entryID    cron.EntryID
	lastSync   time.Time
	lastResult *Result
}

// NewManager creates a sync manager.
func NewManager(cfg *config.Config, lister Lister, ingester PageIngester) *Manager {
	logging.Info().
		Bool("enabled", cfg.Sync.Enabled).
		Str("schedule", cfg.Sync.Schedule).
		Str("tags", cfg.ListingTags()).
		Int("pages", cfg.Sync.Pages).
		Int("limit", cfg.Sync.Limit).
		Msg("Sync manager config loaded")

	return &Manager{cfg: cfg, lister: lister, ingester: ingester}
}

// Start schedules periodic syncs. The scheduled runs use ctx and stop
// when it is canceled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("sync manager is already running")
	}

	c := cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	id, err := c.AddFunc(m.cfg.Sync.Schedule, func() { m.scheduledRun(ctx) })
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", m.cfg.Sync.Schedule, err)
	}
	c.Start()

	m.cron = c
	m.entryID = id
	m.running = true

	logging.Info().Str("schedule", m.cfg.Sync.Schedule).Time("next_run", c.Entry(id).Next).Msg("Sync scheduler started")
	return nil
}

func (m *Manager) scheduledRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.TriggerSync(ctx); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			logging.Debug().Msg("Scheduled sync skipped; a run is in progress")
			return
		}
		logging.Warn().Err(err).Msg("Scheduled sync failed (will retry on next tick)")
	}
}

// Stop stops the scheduler and waits for a scheduled run in flight.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync scheduler...")
	<-c.Stop().Done()
	logging.Info().Msg("Sync scheduler stopped")
	return nil
}

// TriggerSync runs one sync now. It fails with ErrSyncInProgress instead
// of queueing behind a running sync.
func (m *Manager) TriggerSync(ctx context.Context) (*Result, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	m.setInProgress(true)
	defer m.setInProgress(false)

	runID := uuid.NewString()
	ctx = logging.ContextWithRunID(ctx, runID)
	result := &Result{RunID: runID, Tags: m.cfg.ListingTags(), StartedAt: time.Now()}

	err := m.syncPages(ctx, result)
	result.FinishedAt = time.Now()
	if err != nil {
		result.Error = err.Error()
	}
	metrics.RecordSyncRun(err)

	m.mu.Lock()
	m.lastResult = result
	if err == nil {
		m.lastSync = result.FinishedAt
	}
	m.mu.Unlock()

	log := logging.Ctx(ctx)
	if err != nil {
		log.Error().Err(err).Int("pages", result.Pages).Msg("Sync failed")
		return result, err
	}
	log.Info().
		Int("pages", result.Pages).
		Int("posts", result.Posts).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Sync completed")
	return result, nil
}

// syncPages walks pages 1..Pages and stops early on an empty page.
func (m *Manager) syncPages(ctx context.Context, result *Result) error {
	pages := m.cfg.Sync.Pages
	if pages <= 0 {
		pages = 1
	}

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		raws, err := m.lister.ListPosts(ctx, remote.ListOptions{
			Page:  page,
			Tags:  result.Tags,
			Limit: m.cfg.Sync.Limit,
		})
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(raws) == 0 {
			logging.Ctx(ctx).Debug().Int("page", page).Msg("Empty page; sync done")
			return nil
		}

		pr, err := m.ingester.IngestPage(ctx, raws)
		if err != nil {
			return fmt.Errorf("ingest page %d: %w", page, err)
		}
		result.Pages++
		result.Posts += len(raws)
		result.Succeeded += pr.Succeeded
		result.Failed += pr.Failed
	}
	return nil
}

func (m *Manager) setInProgress(v bool) {
	m.mu.Lock()
	m.inProgress = v
	m.mu.Unlock()
}

// LastSync returns the finish time of the last successful run.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastResult returns a copy of the last run's result, nil before the
// first run.
func (m *Manager) LastResult() *Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil {
		return nil
	}
	r := *m.lastResult
	return &r
}

// IsRunning reports whether the scheduler is started.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Status returns the scheduler state and last result.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		Enabled:    m.cfg.Sync.Enabled,
		Schedule:   m.cfg.Sync.Schedule,
		Running:    m.running,
		InProgress: m.inProgress,
		LastSync:   m.lastSync,
	}
	if m.cron != nil {
		st.NextRun = m.cron.Entry(m.entryID).Next
	}
	if m.lastResult != nil {
		r := *m.lastResult
		st.LastResult = &r
	}
	return st
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
