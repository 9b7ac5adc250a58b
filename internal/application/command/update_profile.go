package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Nil pointer fields mean "leave unchanged".
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains profile fields to update.
type UpdateProfileCommand struct {
	UserID   string
	FullName *string
	Email    *string
	Settings *user.Settings
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_profile: user_id is required")
	}
	if c.FullName == nil && c.Email == nil && c.Settings == nil {
		return errors.New("update_profile: nothing to update")
	}
	return nil
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	userRepo user.Repository
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(userRepo user.Repository) *UpdateProfileHandler {
	return &UpdateProfileHandler{userRepo: userRepo}
}

// Handle executes the profile update.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_profile: validation failed: %w", err)
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if cmd.FullName != nil || cmd.Email != nil {
		if err := u.UpdateProfile(cmd.FullName, cmd.Email); err != nil {
			return nil, err
		}
	}
	if cmd.Settings != nil {
		u.UpdateSettings(*cmd.Settings)
	}

	if err := h.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}
