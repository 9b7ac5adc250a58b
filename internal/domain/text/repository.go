package text

import (
	"context"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
)

// Filter задаёт критерии выборки образцов текста.
// Нулевые значения означают "без фильтра".
type Filter struct {
	Difficulty           session.Difficulty
	KeyboardRow          KeyboardRow
	IncludesNumbers      *bool
	IncludesSpecialChars *bool
	MinCharacters        int
	MaxCharacters        int
	MinWords             int
	MaxWords             int
	Limit                int
}

// Repository определяет операции над образцами текста.
type Repository interface {
	// Create сохраняет новый образец.
	Create(ctx context.Context, t *SampleText) error

	// GetByID возвращает образец по ID.
	// Возвращает shared.ErrTextNotFound, если образец не найден.
	GetByID(ctx context.Context, id string) (*SampleText, error)

	// Find возвращает образцы по фильтру (максимум Filter.Limit,
	// по умолчанию 10).
	Find(ctx context.Context, filter Filter) ([]*SampleText, error)

	// FindRandom возвращает один случайный образец по фильтру.
	// Возвращает shared.ErrNoMatchingText, если ничего не подошло.
	FindRandom(ctx context.Context, filter Filter) (*SampleText, error)

	// Delete удаляет образец.
	// Возвращает shared.ErrTextNotFound, если образец не найден.
	Delete(ctx context.Context, id string) error
}
