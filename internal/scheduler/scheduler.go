// Package scheduler advances items through the time-driven part of their
// lifecycle. Once a day it moves lost items whose retention is running out
// into the disposal queue and discards queued items whose deadline passed.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/store"
)

// DefaultRunAt is the default daily run time.
const DefaultRunAt = "00:00"

// ErrLocked is returned by RunOnce when another process holds the lock.
var ErrLocked = errors.New("another scheduler run is in progress")

// Lifecycle is the set of item operations a sweep needs.
type Lifecycle interface {
	ItemsDueForMarking(ctx context.Context) ([]model.Item, error)
	ItemsDueForDiscard(ctx context.Context) ([]model.Item, error)
	MarkToBeDiscarded(ctx context.Context, itemID string) (*model.Item, error)
	Discard(ctx context.Context, itemID string) (*model.Item, error)
}

// Config controls when and how the scheduler runs.
type Config struct {
	// RunAt is the local time of day, as HH:MM, of the daily run.
	RunAt string
	// LockPath, if set, is a file locked for the duration of each run so
	// that several processes sharing a database do not sweep together.
	LockPath string
}

// Result summarizes one sweep.
type Result struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Failed     int `json:"failed"`
}

// Report summarizes one run of both sweeps.
type Report struct {
	StartedAt time.Time `json:"started_at"`
	Marked    Result    `json:"marked"`
	Discarded Result    `json:"discarded"`
}

// Scheduler runs the daily lifecycle sweeps.
type Scheduler struct {
	items  Lifecycle
	db     *sql.DB
	logger *slog.Logger
	hour   int
	minute int
	lock   *flock.Flock

	// Now returns the current time. Tests replace it.
	Now func() time.Time

	mu sync.Mutex
}

// New creates a scheduler. db is used to record when the last run finished
// and may be nil.
func New(items Lifecycle, db *sql.DB, logger *slog.Logger, cfg Config) (*Scheduler, error) {
	if items == nil {
		return nil, errors.New("scheduler requires a lifecycle")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RunAt == "" {
		cfg.RunAt = DefaultRunAt
	}

	hour, minute, err := ParseRunAt(cfg.RunAt)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		items:  items,
		db:     db,
		logger: logger.With("component", "scheduler"),
		hour:   hour,
		minute: minute,
		Now:    time.Now,
	}
	if cfg.LockPath != "" {
		s.lock = flock.New(cfg.LockPath)
	}
	return s, nil
}

// ParseRunAt parses an HH:MM time of day.
func ParseRunAt(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid run time %q: expected HH:MM", value)
	}
	return t.Hour(), t.Minute(), nil
}

// SweepToBeDiscarded moves every lost item whose grace period has started
// into the disposal queue.
func (s *Scheduler) SweepToBeDiscarded(ctx context.Context) (Result, error) {
	items, err := s.items.ItemsDueForMarking(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("finding items to mark: %w", err)
	}
	return s.sweep(ctx, "mark to be discarded", items, s.items.MarkToBeDiscarded), nil
}

// SweepDiscard discards every queued item whose deadline has passed.
func (s *Scheduler) SweepDiscard(ctx context.Context) (Result, error) {
	items, err := s.items.ItemsDueForDiscard(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("finding items to discard: %w", err)
	}
	return s.sweep(ctx, "discard", items, s.items.Discard), nil
}

// sweep applies op to each item in order. A failing item is logged and
// skipped; it does not stop the sweep or undo earlier items.
func (s *Scheduler) sweep(ctx context.Context, name string, items []model.Item, op func(context.Context, string) (*model.Item, error)) Result {
	res := Result{Candidates: len(items)}
	if len(items) == 0 {
		s.logger.Info("sweep found no items", "sweep", name)
		return res
	}

	for _, item := range items {
		if ctx.Err() != nil {
			s.logger.Warn("sweep interrupted", "sweep", name, "error", ctx.Err())
			break
		}
		if _, err := op(ctx, item.ID); err != nil {
			res.Failed++
			s.logger.Error("sweep item failed", "sweep", name, "item", item.ID, "error", err)
			continue
		}
		res.Processed++
		s.logger.Info("sweep item processed", "sweep", name, "item", item.ID, "name", item.Name)
	}

	s.logger.Info("sweep finished", "sweep", name,
		"candidates", res.Candidates, "processed", res.Processed, "failed", res.Failed)
	return res
}

// RunOnce runs both sweeps, marking before discarding. It returns ErrLocked
// if another process holds the lock file.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring scheduler lock: %w", err)
		}
		if !ok {
			return nil, ErrLocked
		}
		defer func() {
			if err := s.lock.Unlock(); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	report := &Report{StartedAt: s.Now().UTC()}
	var err error
	if report.Marked, err = s.SweepToBeDiscarded(ctx); err != nil {
		return nil, err
	}
	if report.Discarded, err = s.SweepDiscard(ctx); err != nil {
		return nil, err
	}

	if s.db != nil {
		if err := store.PutSetting(ctx, s.db, store.SettingLastSweepAt, report.StartedAt.Format(time.RFC3339)); err != nil {
			s.logger.Warn("failed to record sweep time", "error", err)
		}
	}
	return report, nil
}

// LastRun returns when the last run started, or the zero time if the
// scheduler has never run against this database.
func (s *Scheduler) LastRun(ctx context.Context) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, nil
	}
	value, ok, err := store.GetSetting(ctx, s.db, store.SettingLastSweepAt)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sweep time: %w", err)
	}
	return t, nil
}

// NextRun returns the first run time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs RunOnce every day at the configured time until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		now := s.Now()
		next := s.NextRun(now)
		s.logger.Info("next sweep scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrLocked) {
				s.logger.Warn("skipping sweep", "error", err)
			} else {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}
