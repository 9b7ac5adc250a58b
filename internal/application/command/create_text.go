package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE TEXT COMMAND
// Character and word counts are derived from the content, never accepted
// from the caller.
// ══════════════════════════════════════════════════════════════════════════════

// CreateTextCommand contains the data for a new sample text.
type CreateTextCommand struct {
	Title                string
	Content              string
	Difficulty           string
	KeyboardRow          string
	IncludesNumbers      bool
	IncludesSpecialChars bool
}

// Validate validates the command.
func (c CreateTextCommand) Validate() error {
	if c.Title == "" {
		return errors.New("create_text: title is required")
	}
	if c.Content == "" {
		return errors.New("create_text: content is required")
	}
	return nil
}

// CreateTextHandler handles the CreateTextCommand.
type CreateTextHandler struct {
	textRepo text.Repository
}

// NewCreateTextHandler creates a new CreateTextHandler.
func NewCreateTextHandler(textRepo text.Repository) *CreateTextHandler {
	return &CreateTextHandler{textRepo: textRepo}
}

// Handle creates and persists the sample text.
func (h *CreateTextHandler) Handle(ctx context.Context, cmd CreateTextCommand) (*text.SampleText, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_text: validation failed: %w", err)
	}

	t, err := text.New(
		cmd.Title,
		cmd.Content,
		session.Difficulty(cmd.Difficulty),
		text.KeyboardRow(cmd.KeyboardRow),
		cmd.IncludesNumbers,
		cmd.IncludesSpecialChars,
	)
	if err != nil {
		return nil, err
	}

	if err := h.textRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}
