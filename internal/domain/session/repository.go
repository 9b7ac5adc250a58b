package session

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем сессий.
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// ListFilter задаёт фильтры постраничного списка сессий пользователя.
type ListFilter struct {
	// SessionType - фильтр по типу (пустое значение = все).
	SessionType Type

	// Difficulty - фильтр по сложности (пустое значение = все).
	Difficulty Difficulty

	// Offset/Limit - пагинация.
	Offset int
	Limit  int
}

// Repository определяет операции над сессиями набора.
type Repository interface {
	// Create сохраняет новую сессию.
	Create(ctx context.Context, s *TypingSession) error

	// GetByID возвращает сессию по ID.
	// Возвращает shared.ErrSessionNotFound, если сессия не найдена.
	GetByID(ctx context.Context, id string) (*TypingSession, error)

	// Update сохраняет изменённую сессию.
	// Возвращает shared.ErrSessionNotFound, если сессия не найдена.
	Update(ctx context.Context, s *TypingSession) error

	// Delete удаляет сессию.
	// Возвращает shared.ErrSessionNotFound, если сессия не найдена.
	Delete(ctx context.Context, id string) error

	// ListByUser возвращает страницу сессий пользователя,
	// отсортированных по created_at DESC.
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*TypingSession, error)

	// CountByUser возвращает количество сессий пользователя по фильтру.
	CountByUser(ctx context.Context, userID string, filter ListFilter) (int, error)

	// FindByUserInRange возвращает все сессии пользователя, чей created_at
	// попадает в [start, end]. Это основной запрос движка агрегации:
	// пересчёт корзины всегда читает полный набор сессий корзины.
	FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]*TypingSession, error)

	// ListAllByUser возвращает все сессии пользователя по возрастанию
	// created_at. Используется статистикой и подсчётом серий дней.
	ListAllByUser(ctx context.Context, userID string) ([]*TypingSession, error)
}
