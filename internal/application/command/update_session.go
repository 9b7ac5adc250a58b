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
// UPDATE SESSION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateSessionCommand contains session fields to update.
// Nil pointer fields mean "leave unchanged".
type UpdateSessionCommand struct {
	SessionID string
	UserID    string

	UserInput           *string
	WPM                 *float64
	Accuracy            *float64
	DurationSeconds     *int
	TotalCharacters     *int
	CorrectCharacters   *int
	IncorrectCharacters *int
}

// Validate validates the command.
func (c UpdateSessionCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("update_session: session_id is required")
	}
	if c.UserID == "" {
		return errors.New("update_session: user_id is required")
	}
	return nil
}

// UpdateSessionHandler handles the UpdateSessionCommand.
type UpdateSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewUpdateSessionHandler creates a new UpdateSessionHandler.
func NewUpdateSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *UpdateSessionHandler {
	return &UpdateSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the session update. A session belonging to another
// user reports not-found, so sessions cannot be probed across accounts.
func (h *UpdateSessionHandler) Handle(ctx context.Context, cmd UpdateSessionCommand) (*session.TypingSession, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_session: validation failed: %w", err)
	}

	s, err := h.sessionRepo.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if !s.BelongsTo(cmd.UserID) {
		return nil, shared.ErrSessionNotFound
	}

	if cmd.UserInput != nil {
		s.UserInput = *cmd.UserInput
	}
	if cmd.WPM != nil {
		s.WPM = *cmd.WPM
	}
	if cmd.Accuracy != nil {
		s.Accuracy = *cmd.Accuracy
	}
	if cmd.DurationSeconds != nil {
		s.DurationSeconds = *cmd.DurationSeconds
	}
	if cmd.TotalCharacters != nil {
		s.TotalCharacters = *cmd.TotalCharacters
	}
	if cmd.CorrectCharacters != nil {
		s.CorrectCharacters = *cmd.CorrectCharacters
	}
	if cmd.IncorrectCharacters != nil {
		s.IncorrectCharacters = *cmd.IncorrectCharacters
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	if err := h.sessionRepo.Update(ctx, s); err != nil {
		return nil, err
	}

	// A changed score can move leaderboard aggregates; reuse the recorded
	// event so the same recompute path picks it up.
	if h.eventPublisher != nil {
		event := shared.NewSessionRecordedEvent(s.ID, s.UserID, s.WPM, s.Accuracy, s.CreatedAt)
		if err := h.eventPublisher.Publish(event); err != nil {
			slog.Warn("failed to publish session.recorded event",
				"session_id", s.ID, "error", err)
		}
	}

	return s, nil
}
