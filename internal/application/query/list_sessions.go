package query

import (
	"context"
	"errors"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SESSIONS QUERY
// Постраничная история сессий пользователя, новые в начале.
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsQuery содержит параметры запроса истории.
type ListSessionsQuery struct {
	// UserID - владелец сессий.
	UserID string

	// SessionType / Difficulty - фильтры (пустые = все).
	SessionType string
	Difficulty  string

	// Page - номер страницы, начиная с 1.
	Page int

	// Limit - размер страницы (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет и нормализует параметры запроса.
func (q *ListSessionsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("list_sessions: user_id is required")
	}
	if q.SessionType != "" && !session.Type(q.SessionType).IsValid() {
		return shared.ErrInvalidSessionType
	}
	if q.Difficulty != "" && !session.Difficulty(q.Difficulty).IsValid() {
		return shared.ErrInvalidDifficulty
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SessionDTO - одна сессия в истории.
type SessionDTO struct {
	ID                  string    `json:"id"`
	WPM                 float64   `json:"wpm"`
	Accuracy            float64   `json:"accuracy"`
	DurationSeconds     int       `json:"duration_seconds"`
	TotalCharacters     int       `json:"total_characters"`
	CorrectCharacters   int       `json:"correct_characters"`
	IncorrectCharacters int       `json:"incorrect_characters"`
	SessionType         string    `json:"session_type"`
	Difficulty          string    `json:"difficulty"`
	SampleTextID        string    `json:"sample_text_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// SessionListDTO - страница истории.
type SessionListDTO struct {
	Sessions    []SessionDTO `json:"sessions"`
	Total       int          `json:"total"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
}

// ListSessionsHandler обрабатывает ListSessionsQuery.
type ListSessionsHandler struct {
	sessionRepo session.Repository
}

// NewListSessionsHandler создаёт новый ListSessionsHandler.
func NewListSessionsHandler(sessionRepo session.Repository) *ListSessionsHandler {
	return &ListSessionsHandler{sessionRepo: sessionRepo}
}

// Handle выполняет запрос.
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) (*SessionListDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := session.ListFilter{
		SessionType: session.Type(q.SessionType),
		Difficulty:  session.Difficulty(q.Difficulty),
		Offset:      (q.Page - 1) * q.Limit,
		Limit:       q.Limit,
	}

	sessions, err := h.sessionRepo.ListByUser(ctx, q.UserID, filter)
	if err != nil {
		return nil, err
	}

	total, err := h.sessionRepo.CountByUser(ctx, q.UserID, filter)
	if err != nil {
		return nil, err
	}

	dto := &SessionListDTO{
		Sessions:    make([]SessionDTO, 0, len(sessions)),
		Total:       total,
		TotalPages:  totalPages(total, q.Limit),
		CurrentPage: q.Page,
	}
	for _, s := range sessions {
		dto.Sessions = append(dto.Sessions, toSessionDTO(s))
	}

	return dto, nil
}

func toSessionDTO(s *session.TypingSession) SessionDTO {
	return SessionDTO{
		ID:                  s.ID,
		WPM:                 s.WPM,
		Accuracy:            s.Accuracy,
		DurationSeconds:     s.DurationSeconds,
		TotalCharacters:     s.TotalCharacters,
		CorrectCharacters:   s.CorrectCharacters,
		IncorrectCharacters: s.IncorrectCharacters,
		SessionType:         string(s.SessionType),
		Difficulty:          string(s.Difficulty),
		SampleTextID:        s.SampleTextID,
		CreatedAt:           s.CreatedAt,
	}
}
