package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN USER COMMAND
// The login field accepts either a username or an email address.
// ══════════════════════════════════════════════════════════════════════════════

// LoginUserCommand contains login credentials.
type LoginUserCommand struct {
	Login    string
	Password string
}

// Validate validates the command.
func (c LoginUserCommand) Validate() error {
	if c.Login == "" {
		return errors.New("login_user: login is required")
	}
	if c.Password == "" {
		return errors.New("login_user: password is required")
	}
	return nil
}

// LoginUserResult contains the authenticated user and access token.
type LoginUserResult struct {
	User  *user.User
	Token string
}

// LoginUserHandler handles the LoginUserCommand.
type LoginUserHandler struct {
	userRepo user.Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
}

// NewLoginUserHandler creates a new LoginUserHandler.
func NewLoginUserHandler(userRepo user.Repository, hasher PasswordHasher, tokens TokenIssuer) *LoginUserHandler {
	return &LoginUserHandler{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Handle executes the login.
// An unknown login and a wrong password both map to ErrInvalidCredentials
// so responses do not reveal which accounts exist.
func (h *LoginUserHandler) Handle(ctx context.Context, cmd LoginUserCommand) (*LoginUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("login_user: validation failed: %w", err)
	}

	u, err := h.userRepo.GetByLogin(ctx, cmd.Login)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login_user: failed to load user: %w", err)
	}

	if err := h.hasher.Verify(u.PasswordHash, cmd.Password); err != nil {
		return nil, err
	}

	token, err := h.tokens.Issue(u.ID, u.Username.String())
	if err != nil {
		return nil, fmt.Errorf("login_user: failed to issue token: %w", err)
	}

	return &LoginUserResult{User: u, Token: token}, nil
}
