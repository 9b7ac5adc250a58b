package query

import (
	"context"
	"errors"

	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Возвращает профиль владельца токена для GET /auth/me.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery содержит параметры запроса профиля.
type GetProfileQuery struct {
	// UserID - владелец профиля (из bearer-токена).
	UserID string
}

// Validate проверяет параметры запроса.
func (q GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_profile: user_id is required")
	}
	return nil
}

// GetProfileHandler обрабатывает GetProfileQuery.
type GetProfileHandler struct {
	userRepo user.Repository
}

// NewGetProfileHandler создаёт новый GetProfileHandler.
func NewGetProfileHandler(userRepo user.Repository) *GetProfileHandler {
	return &GetProfileHandler{userRepo: userRepo}
}

// Handle выполняет запрос. Маппинг в DTO остаётся за транспортным
// слоем: хэш пароля за пределы сервера не выходит.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*user.User, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.userRepo.GetByID(ctx, q.UserID)
}
