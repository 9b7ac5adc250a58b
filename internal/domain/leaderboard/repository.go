package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракты для работы с хранилищем записей лидерборда.
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Filter ограничивает выборку записей одной корзиной периода
// и (опционально) подстрокой имени пользователя.
type Filter struct {
	// Period - вид временного окна.
	Period Period

	// RangeStart / RangeEnd - границы корзины: period_date попадает
	// в [RangeStart, RangeEnd].
	RangeStart time.Time
	RangeEnd   time.Time

	// Search - подстрока имени пользователя (пустая = без фильтра).
	Search string
}

// PageQuery задаёт страницу ранжированной выборки.
type PageQuery struct {
	Filter

	// Category определяет поле сортировки (по убыванию). Вторичный
	// ключ - id записи, чтобы пагинация была детерминированной при
	// равных счетах.
	Category Category

	// Offset/Limit - пагинация.
	Offset int
	Limit  int
}

// RankedEntry - запись лидерборда вместе с именем владельца.
type RankedEntry struct {
	Entry

	// Username - имя владельца записи (JOIN с пользователями).
	Username string
}

// Repository определяет операции над записями лидерборда.
type Repository interface {
	// Upsert атомарно создаёт или целиком перезаписывает запись по
	// ключу (user_id, period, period_date).
	Upsert(ctx context.Context, e *Entry) error

	// Get возвращает запись по ключу корзины.
	// Возвращает shared.ErrEntryNotFound, если записи нет.
	Get(ctx context.Context, userID string, period Period, periodDate time.Time) (*Entry, error)

	// Page возвращает страницу записей по фильтру, отсортированную по
	// полю категории DESC, id ASC.
	Page(ctx context.Context, q PageQuery) ([]*RankedEntry, error)

	// Count возвращает количество записей по фильтру.
	Count(ctx context.Context, f Filter) (int, error)

	// CountGreater возвращает количество записей по фильтру, у которых
	// значение поля категории строго больше value. Ранг пользователя
	// считается как CountGreater + 1.
	CountGreater(ctx context.Context, f Filter, category Category, value float64) (int, error)

	// FindUserEntry возвращает запись конкретного пользователя в
	// пределах фильтра. Возвращает shared.ErrEntryNotFound, если у
	// пользователя нет записи в корзине.
	FindUserEntry(ctx context.Context, f Filter, userID string) (*RankedEntry, error)

	// ListUserEntries возвращает все записи пользователя по всем
	// периодам и корзинам. Используется фоновой пересборкой, чтобы
	// погасить устаревшие исторические корзины, а не только текущие.
	ListUserEntries(ctx context.Context, userID string) ([]*Entry, error)
}
