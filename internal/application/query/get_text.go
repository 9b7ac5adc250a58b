package query

import (
	"context"
	"errors"

	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TEXT QUERY
// Один образец текста по идентификатору. Каталог публичный,
// авторизация не требуется.
// ══════════════════════════════════════════════════════════════════════════════

// GetTextQuery содержит параметры запроса.
type GetTextQuery struct {
	// TextID - идентификатор образца.
	TextID string
}

// Validate проверяет параметры запроса.
func (q GetTextQuery) Validate() error {
	if q.TextID == "" {
		return errors.New("get_text: text_id is required")
	}
	return nil
}

// GetTextHandler обрабатывает GetTextQuery.
type GetTextHandler struct {
	textRepo text.Repository
}

// NewGetTextHandler создаёт новый GetTextHandler.
func NewGetTextHandler(textRepo text.Repository) *GetTextHandler {
	return &GetTextHandler{textRepo: textRepo}
}

// Handle выполняет запрос.
func (h *GetTextHandler) Handle(ctx context.Context, q GetTextQuery) (SampleTextDTO, error) {
	if err := q.Validate(); err != nil {
		return SampleTextDTO{}, err
	}

	t, err := h.textRepo.GetByID(ctx, q.TextID)
	if err != nil {
		return SampleTextDTO{}, err
	}
	return toTextDTO(t), nil
}
