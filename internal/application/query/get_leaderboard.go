// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Возвращает страницу текущего рейтинга для пары (период, категория).
// Запись смотрящего пользователя прикрепляется отдельно, если она не
// попала на страницу - фронтенд показывает "вы на N-м месте" под списком.
// ══════════════════════════════════════════════════════════════════════════════

// PageCache кэширует отрендеренные страницы рейтинга.
// Реализация в infrastructure/persistence/redis; ошибки кэша никогда не
// ломают запрос - данные читаются из PostgreSQL.
type PageCache interface {
	GetPage(ctx context.Context, key PageCacheKey, dest interface{}) error
	SetPage(ctx context.Context, key PageCacheKey, page interface{}) error
}

// PageCacheKey идентифицирует одну кэшированную страницу.
type PageCacheKey struct {
	Period     string
	PeriodDate string
	Category   string
	Offset     int
	Limit      int
}

// ErrPageCacheMiss сигнализирует об отсутствии страницы в кэше.
var ErrPageCacheMiss = errors.New("leaderboard page not cached")

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Period - период рейтинга (daily/weekly/monthly/all_time).
	Period string

	// Category - категория ранжирования (overall/speed/accuracy/activity).
	Category string

	// Page - номер страницы, начиная с 1.
	Page int

	// Limit - размер страницы (по умолчанию 20, максимум 100).
	Limit int

	// Search - подстрока имени пользователя (опционально).
	Search string

	// CurrentUserID - ID смотрящего пользователя (пустой = аноним).
	CurrentUserID string
}

// Validate проверяет и нормализует параметры запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Period == "" {
		q.Period = leaderboard.PeriodAllTime.String()
	}
	if _, err := leaderboard.ParsePeriod(q.Period); err != nil {
		return err
	}
	if q.Category == "" {
		q.Category = leaderboard.CategoryOverall.String()
	}
	if _, err := leaderboard.ParseCategory(q.Category); err != nil {
		return err
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

// LeaderboardEntryDTO - одна строка рейтинга.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (сквозная по страницам).
	Rank int `json:"rank"`

	// UserID - владелец записи.
	UserID string `json:"user_id"`

	// Username - имя владельца.
	Username string `json:"username"`

	// Score - отображаемый счёт категории (округление зависит от категории).
	Score float64 `json:"score"`

	// BestWPM / BestAccuracy / SessionCount - детали агрегата.
	BestWPM      float64 `json:"best_wpm"`
	BestAccuracy float64 `json:"best_accuracy"`
	SessionCount int     `json:"session_count"`

	// IsCurrentUser - это строка смотрящего пользователя.
	IsCurrentUser bool `json:"is_current_user"`
}

// LeaderboardPageDTO - страница рейтинга.
type LeaderboardPageDTO struct {
	Entries []LeaderboardEntryDTO `json:"entries"`

	// CurrentUserEntry - запись смотрящего, если её нет на странице.
	CurrentUserEntry *LeaderboardEntryDTO `json:"current_user_entry,omitempty"`

	TotalUsers  int    `json:"total_users"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	Period      string `json:"period"`
	Category    string `json:"category"`
}

// GetLeaderboardHandler обрабатывает GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	leaderboardRepo leaderboard.Repository
	pageCache       PageCache
}

// NewGetLeaderboardHandler создаёт новый GetLeaderboardHandler.
func NewGetLeaderboardHandler(leaderboardRepo leaderboard.Repository, pageCache PageCache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		leaderboardRepo: leaderboardRepo,
		pageCache:       pageCache,
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardPageDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	period, _ := leaderboard.ParsePeriod(q.Period)
	category, _ := leaderboard.ParseCategory(q.Category)

	now := timeutil.Now()
	rangeStart, rangeEnd := period.RangeAt(now)
	filter := leaderboard.Filter{
		Period:     period,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Search:     q.Search,
	}

	offset := (q.Page - 1) * q.Limit

	// Кэшируются только анонимные запросы без поиска: персонализация
	// и поиск делают ключи бесполезными.
	cacheable := h.pageCache != nil && q.CurrentUserID == "" && q.Search == ""
	cacheKey := PageCacheKey{
		Period:     period.String(),
		PeriodDate: timeutil.FormatDateStr(period.BucketDate(now)),
		Category:   category.String(),
		Offset:     offset,
		Limit:      q.Limit,
	}

	if cacheable {
		var cached LeaderboardPageDTO
		if err := h.pageCache.GetPage(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
		// Промах или деградация кэша - читаем из базы.
	}

	entries, err := h.leaderboardRepo.Page(ctx, leaderboard.PageQuery{
		Filter:   filter,
		Category: category,
		Offset:   offset,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to load page: %w", err)
	}

	total, err := h.leaderboardRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to count entries: %w", err)
	}

	dto := &LeaderboardPageDTO{
		Entries:     make([]LeaderboardEntryDTO, 0, len(entries)),
		TotalUsers:  total,
		TotalPages:  totalPages(total, q.Limit),
		CurrentPage: q.Page,
		Period:      period.String(),
		Category:    category.String(),
	}

	currentUserOnPage := false
	for i, e := range entries {
		row := toEntryDTO(e, category)
		// Ранг строки = позиция на странице со сдвигом пагинации.
		row.Rank = offset + i + 1
		row.IsCurrentUser = q.CurrentUserID != "" && e.UserID == q.CurrentUserID
		if row.IsCurrentUser {
			currentUserOnPage = true
		}
		dto.Entries = append(dto.Entries, row)
	}

	// Запись смотрящего прикрепляется отдельно, только если её нет на
	// странице. Её ранг считается через строгое сравнение счёта.
	if q.CurrentUserID != "" && !currentUserOnPage {
		own, err := h.currentUserEntry(ctx, filter, category, q.CurrentUserID)
		if err != nil && !errors.Is(err, shared.ErrEntryNotFound) {
			return nil, err
		}
		dto.CurrentUserEntry = own
	}

	if cacheable {
		// Ошибка записи в кэш не влияет на ответ.
		_ = h.pageCache.SetPage(ctx, cacheKey, dto)
	}

	return dto, nil
}

// currentUserEntry возвращает строку пользователя с рангом по формуле
// "количество строго больших + 1".
func (h *GetLeaderboardHandler) currentUserEntry(ctx context.Context, f leaderboard.Filter, category leaderboard.Category, userID string) (*LeaderboardEntryDTO, error) {
	entry, err := h.leaderboardRepo.FindUserEntry(ctx, f, userID)
	if err != nil {
		return nil, err
	}

	greater, err := h.leaderboardRepo.CountGreater(ctx, f, category, category.OrderValue(&entry.Entry))
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to rank current user: %w", err)
	}

	row := toEntryDTO(entry, category)
	row.Rank = greater + 1
	row.IsCurrentUser = true
	return &row, nil
}

func toEntryDTO(e *leaderboard.RankedEntry, category leaderboard.Category) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		UserID:       e.UserID,
		Username:     e.Username,
		Score:        category.Score(&e.Entry),
		BestWPM:      e.BestWPM,
		BestAccuracy: e.BestAccuracy,
		SessionCount: e.SessionCount,
	}
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
