// Package session содержит доменную модель сессии набора текста.
// Сессия - неизменяемая запись одного завершённого упражнения или игры:
// лидерборд читает сессии, но никогда их не изменяет.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет вид активности, из которой родилась сессия.
type Type string

const (
	// TypePractice - обычная тренировка по образцу текста.
	TypePractice Type = "practice"

	// TypeTest - тест на время.
	TypeTest Type = "test"

	// TypeGame - игра с падающими буквами.
	TypeGame Type = "game"
)

// IsValid проверяет корректность типа сессии.
func (t Type) IsValid() bool {
	switch t {
	case TypePractice, TypeTest, TypeGame:
		return true
	}
	return false
}

// Difficulty определяет уровень сложности упражнения.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// IsValid проверяет корректность уровня сложности.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// TypingSession представляет одну завершённую сессию набора.
type TypingSession struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// UserID - владелец сессии.
	UserID string

	// Text - образец, который нужно было набрать.
	Text string

	// UserInput - то, что пользователь набрал на самом деле.
	UserInput string

	// WPM - слов в минуту (>= 0).
	WPM float64

	// Accuracy - точность в процентах (0-100).
	Accuracy float64

	// DurationSeconds - длительность сессии в секундах (>= 1).
	DurationSeconds int

	// Счётчики символов.
	TotalCharacters     int
	CorrectCharacters   int
	IncorrectCharacters int

	// SessionType - вид активности (practice/test/game).
	SessionType Type

	// Difficulty - уровень сложности.
	Difficulty Difficulty

	// SampleTextID - ссылка на образец текста (опционально).
	SampleTextID string

	// CreatedAt - момент завершения сессии. Определяет, в какие
	// календарные корзины лидерборда попадает результат.
	CreatedAt time.Time
}

// Params содержит входные данные для создания сессии.
type Params struct {
	UserID              string
	Text                string
	UserInput           string
	WPM                 float64
	Accuracy            float64
	DurationSeconds     int
	TotalCharacters     int
	CorrectCharacters   int
	IncorrectCharacters int
	SessionType         Type
	Difficulty          Difficulty
	SampleTextID        string
}

// New создаёт новую сессию с проверкой инвариантов.
// Пустые SessionType/Difficulty получают значения по умолчанию.
func New(p Params) (*TypingSession, error) {
	if p.SessionType == "" {
		p.SessionType = TypePractice
	}
	if p.Difficulty == "" {
		p.Difficulty = DifficultyBeginner
	}

	s := &TypingSession{
		ID:                  uuid.NewString(),
		UserID:              p.UserID,
		Text:                p.Text,
		UserInput:           p.UserInput,
		WPM:                 p.WPM,
		Accuracy:            p.Accuracy,
		DurationSeconds:     p.DurationSeconds,
		TotalCharacters:     p.TotalCharacters,
		CorrectCharacters:   p.CorrectCharacters,
		IncorrectCharacters: p.IncorrectCharacters,
		SessionType:         p.SessionType,
		Difficulty:          p.Difficulty,
		SampleTextID:        p.SampleTextID,
		CreatedAt:           time.Now(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate проверяет инварианты сессии.
func (s *TypingSession) Validate() error {
	if s.UserID == "" {
		return shared.WrapError("session", "Validate", shared.ErrInvalidID, "user_id is required", nil)
	}
	if s.WPM < 0 {
		return shared.WrapError("session", "Validate", shared.ErrNegativeValue, "wpm cannot be negative", nil)
	}
	if s.Accuracy < 0 || s.Accuracy > 100 {
		return shared.WrapError("session", "Validate", shared.ErrValueOutOfRange, "accuracy must be in [0, 100]", nil)
	}
	if s.DurationSeconds < 1 {
		return shared.WrapError("session", "Validate", shared.ErrValueOutOfRange, "duration must be at least 1 second", nil)
	}
	if s.TotalCharacters < 0 || s.CorrectCharacters < 0 || s.IncorrectCharacters < 0 {
		return shared.WrapError("session", "Validate", shared.ErrNegativeValue, "character counts cannot be negative", nil)
	}
	if !s.SessionType.IsValid() {
		return shared.ErrInvalidSessionType
	}
	if !s.Difficulty.IsValid() {
		return shared.ErrInvalidDifficulty
	}
	return nil
}

// BelongsTo проверяет принадлежность сессии пользователю.
func (s *TypingSession) BelongsTo(userID string) bool {
	return s.UserID == userID
}
