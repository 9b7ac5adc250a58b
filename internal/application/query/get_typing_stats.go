package query

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TYPING STATS QUERY
// Личная статистика пользователя: средние и лучшие показатели, общее
// время практики и серия дней подряд.
// ══════════════════════════════════════════════════════════════════════════════

// GetTypingStatsQuery содержит параметры запроса статистики.
type GetTypingStatsQuery struct {
	// UserID - пользователь, чья статистика запрашивается.
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetTypingStatsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_typing_stats: user_id is required")
	}
	return nil
}

// TypingStatsDTO - сводная статистика пользователя.
type TypingStatsDTO struct {
	// TotalSessions - всего завершённых сессий.
	TotalSessions int `json:"total_sessions"`

	// AvgWPM / AvgAccuracy - средние по всем сессиям (1 знак).
	AvgWPM      float64 `json:"avg_wpm"`
	AvgAccuracy float64 `json:"avg_accuracy"`

	// BestWPM - максимальный WPM за всё время.
	BestWPM float64 `json:"best_wpm"`

	// TotalPracticeSeconds - суммарная длительность сессий.
	TotalPracticeSeconds int `json:"total_practice_seconds"`

	// StreakDays - текущая серия календарных дней с хотя бы одной
	// сессией, заканчивающаяся сегодня или вчера.
	StreakDays int `json:"streak_days"`
}

// GetTypingStatsHandler обрабатывает GetTypingStatsQuery.
type GetTypingStatsHandler struct {
	sessionRepo session.Repository
}

// NewGetTypingStatsHandler создаёт новый GetTypingStatsHandler.
func NewGetTypingStatsHandler(sessionRepo session.Repository) *GetTypingStatsHandler {
	return &GetTypingStatsHandler{sessionRepo: sessionRepo}
}

// Handle выполняет запрос.
func (h *GetTypingStatsHandler) Handle(ctx context.Context, q GetTypingStatsQuery) (*TypingStatsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sessions, err := h.sessionRepo.ListAllByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dto := &TypingStatsDTO{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return dto, nil
	}

	var sumWPM, sumAcc float64
	for _, s := range sessions {
		sumWPM += s.WPM
		sumAcc += s.Accuracy
		if s.WPM > dto.BestWPM {
			dto.BestWPM = s.WPM
		}
		dto.TotalPracticeSeconds += s.DurationSeconds
	}

	n := float64(len(sessions))
	dto.AvgWPM = round1(sumWPM / n)
	dto.AvgAccuracy = round1(sumAcc / n)
	dto.StreakDays = streakDays(sessions)

	return dto, nil
}

// streakDays считает серию дней подряд с хотя бы одной сессией.
// Серия актуальна, если последний её день - сегодня или вчера; иначе
// серия прервана и равна нулю.
func streakDays(sessions []*session.TypingSession) int {
	if len(sessions) == 0 {
		return 0
	}

	// Сессии приходят по возрастанию created_at; сворачиваем в дни.
	days := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		day := timeutil.StartOfDay(s.CreatedAt)
		if len(days) == 0 || !day.Equal(days[len(days)-1]) {
			days = append(days, day)
		}
	}

	latest := days[len(days)-1]
	if !timeutil.IsToday(latest) && !timeutil.IsYesterday(latest) {
		return 0
	}

	// Идём от конца: серия растёт, пока дни соседние.
	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if timeutil.DaysBetween(days[i-1], days[i]) == 1 {
			streak++
			continue
		}
		break
	}

	return streak
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
