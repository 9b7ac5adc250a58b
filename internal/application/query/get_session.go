package query

import (
	"context"
	"errors"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SESSION QUERY
// Одна сессия по идентификатору. Чужая сессия неотличима от
// несуществующей: и то и другое отвечает not-found.
// ══════════════════════════════════════════════════════════════════════════════

// GetSessionQuery содержит параметры запроса.
type GetSessionQuery struct {
	// SessionID - идентификатор сессии.
	SessionID string

	// UserID - запрашивающий пользователь.
	UserID string
}

// Validate проверяет параметры запроса.
func (q GetSessionQuery) Validate() error {
	if q.SessionID == "" {
		return errors.New("get_session: session_id is required")
	}
	if q.UserID == "" {
		return errors.New("get_session: user_id is required")
	}
	return nil
}

// GetSessionHandler обрабатывает GetSessionQuery.
type GetSessionHandler struct {
	sessionRepo session.Repository
}

// NewGetSessionHandler создаёт новый GetSessionHandler.
func NewGetSessionHandler(sessionRepo session.Repository) *GetSessionHandler {
	return &GetSessionHandler{sessionRepo: sessionRepo}
}

// Handle выполняет запрос.
func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (SessionDTO, error) {
	if err := q.Validate(); err != nil {
		return SessionDTO{}, err
	}

	s, err := h.sessionRepo.GetByID(ctx, q.SessionID)
	if err != nil {
		return SessionDTO{}, err
	}
	if !s.BelongsTo(q.UserID) {
		return SessionDTO{}, shared.ErrSessionNotFound
	}

	return toSessionDTO(s), nil
}
