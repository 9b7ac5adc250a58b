package query

import (
	"context"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/text"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND TEXTS QUERY
// Выборка образцов текста по признакам: сложность, ряд клавиатуры,
// наличие цифр и спецсимволов, границы длины.
// ══════════════════════════════════════════════════════════════════════════════

// FindTextsQuery содержит критерии выборки.
type FindTextsQuery struct {
	Difficulty           string
	KeyboardRow          string
	IncludesNumbers      *bool
	IncludesSpecialChars *bool
	MinCharacters        int
	MaxCharacters        int
	MinWords             int
	MaxWords             int
	Limit                int

	// Random - вернуть один случайный образец вместо списка.
	Random bool
}

// Validate проверяет и нормализует параметры запроса.
func (q *FindTextsQuery) Validate() error {
	if q.Difficulty != "" && !session.Difficulty(q.Difficulty).IsValid() {
		return shared.ErrInvalidDifficulty
	}
	if q.KeyboardRow != "" && !text.KeyboardRow(q.KeyboardRow).IsValid() {
		return shared.WrapError("query", "FindTexts", shared.ErrInvalidInput, "invalid keyboard row", nil)
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}

// SampleTextDTO - образец текста для фронтенда.
type SampleTextDTO struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Content              string    `json:"content"`
	Difficulty           string    `json:"difficulty"`
	KeyboardRow          string    `json:"keyboard_row"`
	IncludesNumbers      bool      `json:"includes_numbers"`
	IncludesSpecialChars bool      `json:"includes_special_chars"`
	CharacterCount       int       `json:"character_count"`
	WordCount            int       `json:"word_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// FindTextsHandler обрабатывает FindTextsQuery.
type FindTextsHandler struct {
	textRepo text.Repository
}

// NewFindTextsHandler создаёт новый FindTextsHandler.
func NewFindTextsHandler(textRepo text.Repository) *FindTextsHandler {
	return &FindTextsHandler{textRepo: textRepo}
}

// Handle выполняет запрос.
// В режиме Random возвращается срез из одного элемента либо
// shared.ErrNoMatchingText.
func (h *FindTextsHandler) Handle(ctx context.Context, q FindTextsQuery) ([]SampleTextDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := text.Filter{
		Difficulty:           session.Difficulty(q.Difficulty),
		KeyboardRow:          text.KeyboardRow(q.KeyboardRow),
		IncludesNumbers:      q.IncludesNumbers,
		IncludesSpecialChars: q.IncludesSpecialChars,
		MinCharacters:        q.MinCharacters,
		MaxCharacters:        q.MaxCharacters,
		MinWords:             q.MinWords,
		MaxWords:             q.MaxWords,
		Limit:                q.Limit,
	}

	if q.Random {
		t, err := h.textRepo.FindRandom(ctx, filter)
		if err != nil {
			return nil, err
		}
		return []SampleTextDTO{toTextDTO(t)}, nil
	}

	texts, err := h.textRepo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]SampleTextDTO, 0, len(texts))
	for _, t := range texts {
		dtos = append(dtos, toTextDTO(t))
	}
	return dtos, nil
}

func toTextDTO(t *text.SampleText) SampleTextDTO {
	return SampleTextDTO{
		ID:                   t.ID,
		Title:                t.Title,
		Content:              t.Content,
		Difficulty:           string(t.Difficulty),
		KeyboardRow:          string(t.KeyboardRow),
		IncludesNumbers:      t.IncludesNumbers,
		IncludesSpecialChars: t.IncludesSpecialChars,
		CharacterCount:       t.CharacterCount,
		WordCount:            t.WordCount,
		CreatedAt:            t.CreatedAt,
	}
}
