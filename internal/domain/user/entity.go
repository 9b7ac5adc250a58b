// Package user содержит доменную модель пользователя TypeFlow.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Username представляет уникальное имя пользователя.
type Username string

// IsValid проверяет корректность имени пользователя.
// Допустимы 3-30 символов без пробелов.
func (u Username) IsValid() bool {
	s := string(u)
	return len(s) >= 3 && len(s) <= 30 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление имени.
func (u Username) String() string {
	return string(u)
}

// Email представляет адрес электронной почты пользователя.
type Email string

// IsValid проверяет корректность адреса.
func (e Email) IsValid() bool {
	if e == "" {
		return false
	}
	_, err := mail.ParseAddress(string(e))
	return err == nil
}

// String возвращает строковое представление адреса.
func (e Email) String() string {
	return string(e)
}

// Settings содержит пользовательские настройки тренажёра.
// Хранятся как JSONB, чтобы фронтенд мог добавлять поля без миграций.
type Settings struct {
	// SoundEnabled - включён ли звук клавиш.
	SoundEnabled bool `json:"sound_enabled"`

	// KeyboardLayout - раскладка клавиатуры (например, "qwerty").
	KeyboardLayout string `json:"keyboard_layout"`

	// Theme - тема интерфейса ("light", "dark", "system").
	Theme string `json:"theme"`

	// ShowLiveWPM - показывать ли WPM во время набора.
	ShowLiveWPM bool `json:"show_live_wpm"`
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled:   true,
		KeyboardLayout: "qwerty",
		Theme:          "system",
		ShowLiveWPM:    true,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User представляет зарегистрированного пользователя тренажёра.
type User struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// Username - уникальное имя пользователя.
	Username Username

	// Email - уникальный адрес электронной почты.
	Email Email

	// PasswordHash - bcrypt-хеш пароля. Никогда не сериализуется наружу.
	PasswordHash string

	// FullName - отображаемое полное имя (опционально).
	FullName string

	// Settings - настройки тренажёра.
	Settings Settings

	// CreatedAt / UpdatedAt - метки времени жизненного цикла.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New создаёт нового пользователя с проверкой инвариантов.
// PasswordHash должен быть уже вычислен вызывающей стороной.
func New(username, email, passwordHash string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Username:     Username(username),
		Email:        Email(email),
		PasswordHash: passwordHash,
		Settings:     DefaultSettings(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate проверяет инварианты пользователя.
func (u *User) Validate() error {
	if !u.Username.IsValid() {
		return shared.ErrInvalidUsername
	}
	if !u.Email.IsValid() {
		return shared.ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return shared.ErrWeakPassword
	}
	return nil
}

// UpdateProfile обновляет профильные поля пользователя.
// Пустые значения означают "не менять".
func (u *User) UpdateProfile(fullName *string, email *string) error {
	if email != nil {
		e := Email(*email)
		if !e.IsValid() {
			return shared.ErrInvalidEmail
		}
		u.Email = e
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	u.UpdatedAt = time.Now()
	return nil
}

// UpdateSettings заменяет настройки тренажёра.
func (u *User) UpdateSettings(settings Settings) {
	u.Settings = settings
	u.UpdatedAt = time.Now()
}
