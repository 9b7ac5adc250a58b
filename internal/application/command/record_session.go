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
// RECORD SESSION COMMAND
// Persists a finished typing session and publishes SessionRecordedEvent.
// The leaderboard update runs asynchronously off that event: a recompute
// failure never fails session creation, it only gets logged by the bus.
// ══════════════════════════════════════════════════════════════════════════════

// RecordSessionCommand contains the data of a finished typing session.
type RecordSessionCommand struct {
	UserID              string
	Text                string
	UserInput           string
	WPM                 float64
	Accuracy            float64
	DurationSeconds     int
	TotalCharacters     int
	CorrectCharacters   int
	IncorrectCharacters int
	SessionType         string
	Difficulty          string
	SampleTextID        string
}

// Validate validates the command.
// Full invariant checking happens in the domain constructor; this only
// rejects requests that cannot form a session at all.
func (c RecordSessionCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_session: user_id is required")
	}
	if c.Text == "" {
		return errors.New("record_session: text is required")
	}
	return nil
}

// RecordSessionHandler handles the RecordSessionCommand.
type RecordSessionHandler struct {
	sessionRepo    session.Repository
	eventPublisher shared.EventPublisher
}

// NewRecordSessionHandler creates a new RecordSessionHandler.
func NewRecordSessionHandler(sessionRepo session.Repository, eventPublisher shared.EventPublisher) *RecordSessionHandler {
	return &RecordSessionHandler{
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle persists the session and publishes the recorded event.
func (h *RecordSessionHandler) Handle(ctx context.Context, cmd RecordSessionCommand) (*session.TypingSession, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_session: validation failed: %w", err)
	}

	s, err := session.New(session.Params{
		UserID:              cmd.UserID,
		Text:                cmd.Text,
		UserInput:           cmd.UserInput,
		WPM:                 cmd.WPM,
		Accuracy:            cmd.Accuracy,
		DurationSeconds:     cmd.DurationSeconds,
		TotalCharacters:     cmd.TotalCharacters,
		CorrectCharacters:   cmd.CorrectCharacters,
		IncorrectCharacters: cmd.IncorrectCharacters,
		SessionType:         session.Type(cmd.SessionType),
		Difficulty:          session.Difficulty(cmd.Difficulty),
		SampleTextID:        cmd.SampleTextID,
	})
	if err != nil {
		return nil, err
	}

	if err := h.sessionRepo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("record_session: failed to save session: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewSessionRecordedEvent(s.ID, s.UserID, s.WPM, s.Accuracy, s.CreatedAt)
		if err := h.eventPublisher.Publish(event); err != nil {
			// The session is saved; a lost event only delays the
			// leaderboard until the rebuild job catches up.
			slog.Warn("failed to publish session.recorded event",
				"session_id", s.ID, "error", err)
		}
	}

	return s, nil
}
