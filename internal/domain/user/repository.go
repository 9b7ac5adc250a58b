package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем пользователей.
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над пользователями.
type Repository interface {
	// Create создаёт нового пользователя.
	// Возвращает shared.ErrUserAlreadyExists при конфликте username/email.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по внутреннему ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByLogin возвращает пользователя по username ИЛИ email.
	// Используется при входе: фронтенд передаёт одно поле "login".
	GetByLogin(ctx context.Context, login string) (*User, error)

	// ExistsByUsernameOrEmail проверяет занятость имени или почты.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Update сохраняет изменённого пользователя.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	Update(ctx context.Context, u *User) error

	// ListIDs возвращает идентификаторы всех пользователей.
	// Используется фоновым пересчётом лидерборда.
	ListIDs(ctx context.Context) ([]string, error)
}
