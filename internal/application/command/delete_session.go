package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteSessionCommand identifies the session to delete.
type DeleteSessionCommand struct {
	SessionID string
	UserID    string
}

// Validate validates the command.
func (c DeleteSessionCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("delete_session: session_id is required")
	}
	if c.UserID == "" {
		return errors.New("delete_session: user_id is required")
	}
	return nil
}

// DeleteSessionHandler handles the DeleteSessionCommand.
type DeleteSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewDeleteSessionHandler creates a new DeleteSessionHandler.
func NewDeleteSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *DeleteSessionHandler {
	return &DeleteSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle deletes the session after an ownership check. The emitted
// event carries the session's CreatedAt so the subscriber recomputes
// the exact period buckets the deleted session contributed to.
func (h *DeleteSessionHandler) Handle(ctx context.Context, cmd DeleteSessionCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("delete_session: validation failed: %w", err)
	}

	s, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	if !s.BelongsTo(cmd.UserID) {
		return shared.ErrSessionNotFound
	}

	if err := h.sessionRepo.Delete(ctx, s.ID); err != nil {
		return err
	}

	if h.eventPublisher != nil {
		event := shared.NewSessionDeletedEvent(s.ID, s.UserID, s.CreatedAt)
		if err := h.eventPublisher.Publish(event); err != nil {
			slog.Warn("failed to publish session.deleted event",
				"session_id", s.ID, "error", err)
		}
	}

	return nil
}
