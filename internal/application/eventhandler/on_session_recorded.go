// Package eventhandler contains subscribers that react to domain events.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON SESSION RECORDED
// Bridges session writes to the leaderboard aggregation engine. Runs on
// the event bus worker pool, so a slow recompute never blocks the HTTP
// response that created the session.
// ══════════════════════════════════════════════════════════════════════════════

// CacheInvalidator drops cached leaderboard pages after a recompute.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OnSessionRecorded updates leaderboard buckets when a session is
// recorded or rewritten.
type OnSessionRecorded struct {
	updateLeaderboard *command.UpdateLeaderboardHandler
	cache             CacheInvalidator
	logger            *slog.Logger
}

// NewOnSessionRecorded creates the handler.
func NewOnSessionRecorded(
	updateLeaderboard *command.UpdateLeaderboardHandler,
	cache CacheInvalidator,
	logger *slog.Logger,
) *OnSessionRecorded {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnSessionRecorded{
		updateLeaderboard: updateLeaderboard,
		cache:             cache,
		logger:            logger,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *OnSessionRecorded) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventSessionRecorded}
}

// Handle implements shared.EventHandler. Errors are returned to the bus
// for logging and metrics only; nothing retries here, the periodic
// rebuild job is the retry path.
func (h *OnSessionRecorded) Handle(ctx context.Context, event shared.Event) error {
	recorded, ok := event.(shared.SessionRecordedEvent)
	if !ok {
		return fmt.Errorf("on_session_recorded: unexpected event %T", event)
	}

	result, err := h.updateLeaderboard.Handle(ctx, command.UpdateLeaderboardCommand{
		SessionID: recorded.AggregateID(),
	})
	if err != nil {
		return fmt.Errorf("on_session_recorded: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("leaderboard cache invalidation failed",
				"user_id", result.UserID,
				"error", err,
			)
		}
	}

	h.logger.Debug("leaderboard updated",
		"user_id", result.UserID,
		"periods", result.Periods,
	)

	return nil
}
