package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON SESSION DELETED
// ══════════════════════════════════════════════════════════════════════════════

// OnSessionDeleted reacts to session deletion. The deleted row is gone,
// but the event carries its CreatedAt, so the handler recomputes the
// exact period buckets the session used to contribute to and then drops
// cached pages. Without the recompute a deleted session would keep
// inflating its daily, weekly and monthly aggregates.
type OnSessionDeleted struct {
	updateLeaderboard *command.UpdateLeaderboardHandler
	cache             CacheInvalidator
	logger            *slog.Logger
}

// NewOnSessionDeleted creates the handler.
func NewOnSessionDeleted(
	updateLeaderboard *command.UpdateLeaderboardHandler,
	cache CacheInvalidator,
	logger *slog.Logger,
) *OnSessionDeleted {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnSessionDeleted{
		updateLeaderboard: updateLeaderboard,
		cache:             cache,
		logger:            logger,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *OnSessionDeleted) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventSessionDeleted}
}

// Handle implements shared.EventHandler.
func (h *OnSessionDeleted) Handle(ctx context.Context, event shared.Event) error {
	deleted, ok := event.(shared.SessionDeletedEvent)
	if !ok {
		return fmt.Errorf("on_session_deleted: unexpected event %T", event)
	}

	periods, err := h.updateLeaderboard.RecomputeUserAt(ctx, deleted.UserID, deleted.CreatedAt)
	if err != nil {
		return fmt.Errorf("on_session_deleted: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("leaderboard cache invalidation failed",
				"user_id", deleted.UserID,
				"error", err,
			)
		}
	}

	h.logger.Debug("leaderboard settled after session deletion",
		"session_id", deleted.AggregateID(),
		"user_id", deleted.UserID,
		"periods", periods,
	)

	return nil
}
