package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

func TestNewEntry(t *testing.T) {
	timeutil.SetLocation(time.UTC)
	bucket := timeutil.Date(2026, 8, 31)

	e := NewEntry("user-1", PeriodDaily, bucket)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, PeriodDaily, e.Period)
	assert.Equal(t, bucket, e.PeriodDate)
	assert.Zero(t, e.BestWPM)
	assert.Zero(t, e.SessionCount)
}

func TestRecompute_IndependentBestSelection(t *testing.T) {
	// Лучший WPM и лучшая точность - из разных сессий.
	fast := &session.TypingSession{ID: "s-fast", UserID: "u", WPM: 95.2, Accuracy: 88.0}
	precise := &session.TypingSession{ID: "s-precise", UserID: "u", WPM: 60.0, Accuracy: 99.1}
	middling := &session.TypingSession{ID: "s-mid", UserID: "u", WPM: 70.0, Accuracy: 92.0}

	e := NewEntry("u", PeriodAllTime, timeutil.Date(2000, 1, 1))
	e.Recompute([]*session.TypingSession{middling, fast, precise})

	assert.Equal(t, 95.2, e.BestWPM)
	assert.Equal(t, 99.1, e.BestAccuracy)
	assert.Equal(t, "s-fast", e.BestWPMSessionID)
	assert.Equal(t, "s-precise", e.BestAccuracySessionID)
	assert.Equal(t, 3, e.SessionCount)
	assert.InDelta(t, ComputeOverallScore(95.2, 99.1), e.OverallScore, 1e-9)
}

func TestRecompute_SingleSession(t *testing.T) {
	only := &session.TypingSession{ID: "s-1", UserID: "u", WPM: 42.0, Accuracy: 90.0}

	e := NewEntry("u", PeriodDaily, timeutil.Date(2026, 8, 31))
	e.Recompute([]*session.TypingSession{only})

	assert.Equal(t, "s-1", e.BestWPMSessionID)
	assert.Equal(t, "s-1", e.BestAccuracySessionID)
	assert.Equal(t, 1, e.SessionCount)
}

func TestRecompute_EmptySetZeroesEntry(t *testing.T) {
	e := NewEntry("u", PeriodDaily, timeutil.Date(2026, 8, 31))
	e.Recompute([]*session.TypingSession{
		{ID: "s-1", UserID: "u", WPM: 80, Accuracy: 95},
	})
	assert.NotZero(t, e.BestWPM)

	// Все сессии корзины удалены - запись обнуляется, не остаётся
	// на прежних значениях.
	e.Recompute(nil)

	assert.Zero(t, e.BestWPM)
	assert.Zero(t, e.BestAccuracy)
	assert.Zero(t, e.OverallScore)
	assert.Zero(t, e.SessionCount)
	assert.Empty(t, e.BestWPMSessionID)
	assert.Empty(t, e.BestAccuracySessionID)
}

func TestRecompute_Deterministic(t *testing.T) {
	sessions := []*session.TypingSession{
		{ID: "a", WPM: 55, Accuracy: 91},
		{ID: "b", WPM: 63, Accuracy: 89},
		{ID: "c", WPM: 48, Accuracy: 97},
	}

	first := NewEntry("u", PeriodMonthly, timeutil.Date(2026, 8, 1))
	first.Recompute(sessions)

	// Повторный пересчёт того же набора даёт тот же агрегат.
	second := NewEntry("u", PeriodMonthly, timeutil.Date(2026, 8, 1))
	second.Recompute(sessions)
	second.Recompute(sessions)

	assert.Equal(t, first.BestWPM, second.BestWPM)
	assert.Equal(t, first.BestAccuracy, second.BestAccuracy)
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.SessionCount, second.SessionCount)
}
