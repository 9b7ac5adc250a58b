package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE LEADERBOARD COMMAND
// The aggregation engine. For the session's owner it recomputes one
// bucket per period (daily, weekly, monthly, all_time): the bucket that
// contains the session's CreatedAt, so late-arriving sessions land in
// their historical bucket rather than today's.
//
// Each recompute reads the bucket's complete session set and overwrites
// the entry, so the result is identical no matter how many updates ran
// before or in what order.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLeaderboardCommand identifies the session that triggered the update.
type UpdateLeaderboardCommand struct {
	SessionID string

	// UserID is the expected owner. When set, a session owned by someone
	// else reports not-found instead of updating a foreign leaderboard.
	UserID string
}

// Validate validates the command.
func (c UpdateLeaderboardCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("update_leaderboard: session_id is required")
	}
	return nil
}

// UpdateLeaderboardResult reports which buckets were rewritten.
type UpdateLeaderboardResult struct {
	UserID  string
	Periods []string
}

// UpdateLeaderboardHandler handles the UpdateLeaderboardCommand.
type UpdateLeaderboardHandler struct {
	sessionRepo     session.Repository
	leaderboardRepo leaderboard.Repository
	eventPublisher  shared.EventPublisher

	// userLocks serializes recomputes per user. Two concurrent updates
	// for the same user would each read the full bucket and write the
	// same aggregate, but serializing them keeps read-modify-write on
	// the entry ID stable and avoids duplicate-entry races with the
	// find-or-create step.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewUpdateLeaderboardHandler creates a new UpdateLeaderboardHandler.
func NewUpdateLeaderboardHandler(
	sessionRepo session.Repository,
	leaderboardRepo leaderboard.Repository,
	eventPublisher shared.EventPublisher,
) *UpdateLeaderboardHandler {
	return &UpdateLeaderboardHandler{
		sessionRepo:     sessionRepo,
		leaderboardRepo: leaderboardRepo,
		eventPublisher:  eventPublisher,
		userLocks:       make(map[string]*sync.Mutex),
	}
}

// Handle recomputes all four period buckets for the session's owner.
// A failure aborts the remaining periods; the already-written buckets
// stay correct and the background rebuild repairs the rest.
func (h *UpdateLeaderboardHandler) Handle(ctx context.Context, cmd UpdateLeaderboardCommand) (*UpdateLeaderboardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_leaderboard: validation failed: %w", err)
	}

	s, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if cmd.UserID != "" && !s.BelongsTo(cmd.UserID) {
		return nil, shared.ErrSessionNotFound
	}

	periods, err := h.RecomputeUserAt(ctx, s.UserID, s.CreatedAt)

	result := &UpdateLeaderboardResult{UserID: s.UserID, Periods: periods}
	if err != nil {
		return result, err
	}

	if h.eventPublisher != nil {
		event := shared.NewLeaderboardUpdatedEvent(s.UserID, result.Periods)
		if err := h.eventPublisher.Publish(event); err != nil {
			slog.Warn("failed to publish leaderboard.updated event",
				"user_id", s.UserID, "error", err)
		}
	}

	return result, nil
}

// RecomputeUserAt rewrites, for every period, the user's bucket that
// contains the given timestamp. Session deletion uses it directly with
// the deleted session's CreatedAt, so a removed historical session
// drops out of its daily, weekly and monthly aggregates instead of
// lingering until an unrelated recompute. It returns the periods whose
// buckets were rewritten.
func (h *UpdateLeaderboardHandler) RecomputeUserAt(ctx context.Context, userID string, at time.Time) ([]string, error) {
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var periods []string
	for _, period := range leaderboard.AllPeriods() {
		if err := h.recomputeBucket(ctx, userID, at, period); err != nil {
			return periods, fmt.Errorf("update_leaderboard: %s: %w", period, err)
		}
		periods = append(periods, period.String())
	}
	return periods, nil
}

// recomputeBucket rewrites one (user, period, bucket) entry from the
// complete session set of the bucket containing the timestamp. When the
// entry does not exist and the bucket has no sessions there is nothing
// to record, so no zero entry is created.
func (h *UpdateLeaderboardHandler) recomputeBucket(ctx context.Context, userID string, at time.Time, period leaderboard.Period) error {
	bucketDate := period.BucketDate(at)
	start, end := period.RangeAt(at)

	entry, err := h.leaderboardRepo.Get(ctx, userID, period, bucketDate)
	missing := errors.Is(err, shared.ErrEntryNotFound)
	if missing {
		entry = leaderboard.NewEntry(userID, period, bucketDate)
	} else if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}

	sessions, err := h.sessionRepo.FindByUserInRange(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("find sessions: %w", err)
	}
	if missing && len(sessions) == 0 {
		return nil
	}

	entry.Recompute(sessions)

	if err := h.leaderboardRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}

	return nil
}

// userLock returns the mutex serializing recomputes for one user.
// Locks are never removed; the map grows with the number of distinct
// active users per process lifetime, which is bounded and small.
func (h *UpdateLeaderboardHandler) userLock(userID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	lock, ok := h.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		h.userLocks[userID] = lock
	}
	return lock
}
