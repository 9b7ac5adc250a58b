// Package jobs contains implementations of scheduled jobs for TypeFlow.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// CacheInvalidator drops cached leaderboard pages after a rebuild.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RebuildLeaderboardJob recomputes every user's leaderboard buckets
// from their raw sessions: the buckets containing now plus every bucket
// that already holds an entry. The event-driven path updates entries on
// each session write or delete; this job is the recovery path that
// repairs buckets after missed events or downtime.
type RebuildLeaderboardJob struct {
	userRepo        user.Repository
	sessionRepo     session.Repository
	leaderboardRepo leaderboard.Repository
	cache           CacheInvalidator
	logger          *slog.Logger
	config          RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Periods limits which periods are rebuilt (empty = all).
	Periods []leaderboard.Period

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Periods: nil, // nil = all
		Timeout: 5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	TotalUsers     int
	EntriesWritten int
	UsersFailed    int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	userRepo user.Repository,
	sessionRepo session.Repository,
	leaderboardRepo leaderboard.Repository,
	cache CacheInvalidator,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}

	return &RebuildLeaderboardJob{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		leaderboardRepo: leaderboardRepo,
		cache:           cache,
		logger:          logger,
		config:          config,
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description implements scheduler.Job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes leaderboard buckets from raw typing sessions"
}

// Run implements scheduler.Job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &RebuildStats{StartedAt: time.Now()}

	periods := j.config.Periods
	if len(periods) == 0 {
		periods = leaderboard.AllPeriods()
	}

	ids, err := j.userRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: list users: %w", err)
	}
	stats.TotalUsers = len(ids)

	now := timeutil.Now()

	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		written, err := j.rebuildUser(ctx, userID, periods, now)
		stats.EntriesWritten += written
		if err != nil {
			stats.UsersFailed++
			j.logger.Error("rebuild failed for user",
				"user_id", userID,
				"error", err,
			)
			// One broken user must not abort the whole sweep.
			continue
		}
	}

	if j.cache != nil {
		if err := j.cache.Invalidate(ctx); err != nil {
			j.logger.Warn("cache invalidation failed after rebuild", "error", err)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)

	j.logger.Info("leaderboard rebuild finished",
		"users", stats.TotalUsers,
		"entries_written", stats.EntriesWritten,
		"users_failed", stats.UsersFailed,
		"duration", stats.Duration.String(),
	)

	if stats.UsersFailed > 0 {
		return fmt.Errorf("rebuild: %d of %d users failed", stats.UsersFailed, stats.TotalUsers)
	}
	return nil
}

// rebuildUser recomputes every bucket the user already has an entry in,
// plus the bucket containing now for each period. Sweeping the existing
// entries is what settles stale historical buckets: a session deleted
// months after the fact leaves an entry whose sessions are gone, and
// only a recompute of that exact bucket can zero it.
func (j *RebuildLeaderboardJob) rebuildUser(ctx context.Context, userID string, periods []leaderboard.Period, now time.Time) (int, error) {
	enabled := make(map[leaderboard.Period]bool, len(periods))
	for _, p := range periods {
		enabled[p] = true
	}

	type bucketKey struct {
		period leaderboard.Period
		date   time.Time
	}

	seen := make(map[bucketKey]bool)
	var buckets []bucketKey
	add := func(period leaderboard.Period, date time.Time) {
		key := bucketKey{period, date.UTC()}
		if !seen[key] {
			seen[key] = true
			buckets = append(buckets, key)
		}
	}

	for _, period := range periods {
		add(period, period.BucketDate(now))
	}

	existing, err := j.leaderboardRepo.ListUserEntries(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range existing {
		if enabled[e.Period] {
			add(e.Period, e.PeriodDate)
		}
	}

	written := 0

	for _, key := range buckets {
		start, end := key.period.RangeAt(key.date)

		sessions, err := j.sessionRepo.FindByUserInRange(ctx, userID, start, end)
		if err != nil {
			return written, fmt.Errorf("find sessions for %s: %w", key.period, err)
		}

		entry, err := j.leaderboardRepo.Get(ctx, userID, key.period, key.date)
		if errors.Is(err, shared.ErrEntryNotFound) {
			if len(sessions) == 0 {
				// Nothing to write and nothing stale to fix.
				continue
			}
			entry = leaderboard.NewEntry(userID, key.period, key.date)
		} else if err != nil {
			return written, fmt.Errorf("get entry for %s: %w", key.period, err)
		}

		entry.Recompute(sessions)

		if err := j.leaderboardRepo.Upsert(ctx, entry); err != nil {
			return written, fmt.Errorf("upsert entry for %s: %w", key.period, err)
		}
		written++
	}

	return written, nil
}

// LastStats returns statistics from the most recent run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	if v := j.lastStats.Load(); v != nil {
		return v.(*RebuildStats)
	}
	return nil
}
