package query

import (
	"context"
	"errors"
	"math"

	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Сводка позиций пользователя во всех категориях рейтинга "за всё время".
// Ключевой запрос профиля - показывает "где я нахожусь".
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса.
type GetUserRankQuery struct {
	// UserID - пользователь, чьи позиции запрашиваются.
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetUserRankQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_user_rank: user_id is required")
	}
	return nil
}

// CategoryRankDTO - позиция в одной категории.
type CategoryRankDTO struct {
	// Rank - позиция (0, если у пользователя нет записи).
	Rank int `json:"rank"`

	// Score - отображаемый счёт категории.
	Score float64 `json:"score"`

	// Percentile - процентиль: round((total - rank + 1) / total * 100).
	Percentile float64 `json:"percentile"`
}

// UserRankSummaryDTO - сводка по всем категориям.
type UserRankSummaryDTO struct {
	UserID     string                     `json:"user_id"`
	Username   string                     `json:"username"`
	TotalUsers int                        `json:"total_users"`
	Categories map[string]CategoryRankDTO `json:"categories"`
}

// GetUserRankHandler обрабатывает GetUserRankQuery.
type GetUserRankHandler struct {
	userRepo        user.Repository
	leaderboardRepo leaderboard.Repository
}

// NewGetUserRankHandler создаёт новый GetUserRankHandler.
func NewGetUserRankHandler(userRepo user.Repository, leaderboardRepo leaderboard.Repository) *GetUserRankHandler {
	return &GetUserRankHandler{
		userRepo:        userRepo,
		leaderboardRepo: leaderboardRepo,
	}
}

// Handle выполняет запрос.
// Неизвестный пользователь - ошибка not-found; пользователь без единой
// сессии получает нулевые позиции во всех категориях.
func (h *GetUserRankHandler) Handle(ctx context.Context, q GetUserRankQuery) (*UserRankSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	period := leaderboard.PeriodAllTime
	rangeStart, rangeEnd := period.CurrentRange()
	filter := leaderboard.Filter{
		Period:     period,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	}

	dto := &UserRankSummaryDTO{
		UserID:     u.ID,
		Username:   u.Username.String(),
		Categories: make(map[string]CategoryRankDTO, 4),
	}

	total, err := h.leaderboardRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	dto.TotalUsers = total

	entry, err := h.leaderboardRepo.FindUserEntry(ctx, filter, q.UserID)
	if errors.Is(err, shared.ErrEntryNotFound) {
		// Нулевые позиции: пользователь ещё не в рейтинге.
		for _, category := range leaderboard.AllCategories() {
			dto.Categories[category.String()] = CategoryRankDTO{}
		}
		return dto, nil
	}
	if err != nil {
		return nil, err
	}

	for _, category := range leaderboard.AllCategories() {
		greater, err := h.leaderboardRepo.CountGreater(ctx, filter, category, category.OrderValue(&entry.Entry))
		if err != nil {
			return nil, err
		}

		rank := greater + 1
		dto.Categories[category.String()] = CategoryRankDTO{
			Rank:       rank,
			Score:      category.Score(&entry.Entry),
			Percentile: percentile(rank, total),
		}
	}

	return dto, nil
}

// percentile считает долю пользователей, которых рейтинг не выше данного.
func percentile(rank, total int) float64 {
	if total == 0 || rank == 0 {
		return 0
	}
	return math.Round(float64(total-rank+1) / float64(total) * 100)
}
