// Package text содержит доменную модель образца текста для тренировок.
package text

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// KeyboardRow определяет ряд клавиатуры, на который нацелен образец.
type KeyboardRow string

const (
	RowHome   KeyboardRow = "home"
	RowTop    KeyboardRow = "top"
	RowBottom KeyboardRow = "bottom"
	RowAll    KeyboardRow = "all"
)

// IsValid проверяет корректность ряда клавиатуры.
func (r KeyboardRow) IsValid() bool {
	switch r {
	case RowHome, RowTop, RowBottom, RowAll:
		return true
	}
	return false
}

// SampleText представляет образец текста для набора.
type SampleText struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// Title - название образца.
	Title string

	// Content - сам текст для набора.
	Content string

	// Difficulty - уровень сложности (общий со spec сессий).
	Difficulty session.Difficulty

	// KeyboardRow - целевой ряд клавиатуры.
	KeyboardRow KeyboardRow

	// Признаки содержимого для фильтрации.
	IncludesNumbers      bool
	IncludesSpecialChars bool

	// Производные счётчики, вычисляются при создании.
	CharacterCount int
	WordCount      int

	// CreatedAt - момент создания.
	CreatedAt time.Time
}

// New создаёт образец текста, вычисляя производные счётчики.
func New(title, content string, difficulty session.Difficulty, row KeyboardRow, numbers, special bool) (*SampleText, error) {
	content = strings.TrimRight(content, "\n")
	if strings.TrimSpace(content) == "" {
		return nil, shared.ErrEmptyText
	}
	if difficulty == "" {
		difficulty = session.DifficultyBeginner
	}
	if !difficulty.IsValid() {
		return nil, shared.ErrInvalidDifficulty
	}
	if row == "" {
		row = RowAll
	}
	if !row.IsValid() {
		return nil, shared.WrapError("text", "Validate", shared.ErrInvalidInput, "invalid keyboard row", nil)
	}

	return &SampleText{
		ID:                   uuid.NewString(),
		Title:                title,
		Content:              content,
		Difficulty:           difficulty,
		KeyboardRow:          row,
		IncludesNumbers:      numbers,
		IncludesSpecialChars: special,
		CharacterCount:       len(content),
		WordCount:            countWords(content),
		CreatedAt:            time.Now(),
	}, nil
}

// countWords считает слова, разделённые пробельными символами.
func countWords(content string) int {
	return len(strings.Fields(content))
}
