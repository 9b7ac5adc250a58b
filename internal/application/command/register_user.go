// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Creates an account and returns a signed access token, so the frontend
// can log the user in right after registration without a second call.
// ══════════════════════════════════════════════════════════════════════════════

// PasswordHasher hashes plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// RegisterUserCommand contains the data to register a new user.
type RegisterUserCommand struct {
	Username string
	Email    string
	Password string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if c.Username == "" {
		return errors.New("register_user: username is required")
	}
	if c.Email == "" {
		return errors.New("register_user: email is required")
	}
	if c.Password == "" {
		return errors.New("register_user: password is required")
	}
	return nil
}

// RegisterUserResult contains the result of a registration.
type RegisterUserResult struct {
	User  *user.User
	Token string
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo       user.Repository
	hasher         PasswordHasher
	tokens         TokenIssuer
	eventPublisher shared.EventPublisher
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(
	userRepo user.Repository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	eventPublisher shared.EventPublisher,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		userRepo:       userRepo,
		hasher:         hasher,
		tokens:         tokens,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the registration.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_user: validation failed: %w", err)
	}

	taken, err := h.userRepo.ExistsByUsernameOrEmail(ctx, cmd.Username, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("register_user: failed to check existing user: %w", err)
	}
	if taken {
		return nil, shared.ErrUserAlreadyExists
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}

	u, err := user.New(cmd.Username, cmd.Email, hash)
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		// The existence check above races with concurrent registrations;
		// the unique constraint is the real arbiter.
		return nil, err
	}

	token, err := h.tokens.Issue(u.ID, u.Username.String())
	if err != nil {
		return nil, fmt.Errorf("register_user: failed to issue token: %w", err)
	}

	if h.eventPublisher != nil {
		event := shared.NewUserRegisteredEvent(u.ID, u.Username.String(), u.Email.String())
		if err := h.eventPublisher.Publish(event); err != nil {
			slog.Warn("failed to publish user.registered event",
				"user_id", u.ID, "error", err)
		}
	}

	return &RegisterUserResult{User: u, Token: token}, nil
}
