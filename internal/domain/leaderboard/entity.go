package leaderboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет агрегат лучших результатов пользователя в одной
// корзине периода. Идентичность записи - тройка (UserID, Period,
// PeriodDate): для фиксированных пользователя и периода существует ровно
// одна запись на корзину.
//
// Запись всегда перезаписывается целиком из полного набора сессий
// корзины, никогда не обновляется инкрементально. Поэтому BestWPM и
// BestAccuracy монотонно не убывают, пока сессии только добавляются.
type Entry struct {
	// ID - внутренний идентификатор (UUID). Служит детерминированным
	// вторичным ключом сортировки при равных счетах.
	ID string

	// UserID - владелец записи.
	UserID string

	// Period - вид временного окна.
	Period Period

	// PeriodDate - каноническая дата корзины (Period.BucketDate).
	PeriodDate time.Time

	// BestWPM - максимальный WPM среди сессий корзины.
	BestWPM float64

	// BestAccuracy - максимальная точность среди сессий корзины.
	// Выбирается независимо от BestWPM: лучшие сессии могут различаться.
	BestAccuracy float64

	// OverallScore - комбинированный счёт, хранится без округления.
	OverallScore float64

	// SessionCount - количество сессий корзины на момент пересчёта.
	SessionCount int

	// Ссылки на сессии, давшие лучшие значения.
	BestWPMSessionID      string
	BestAccuracySessionID string

	// CreatedAt / UpdatedAt - метки времени жизненного цикла.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry создаёт пустую запись для корзины.
// Реальные значения появляются при первом Recompute.
func NewEntry(userID string, period Period, periodDate time.Time) *Entry {
	now := time.Now()
	return &Entry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Period:     period,
		PeriodDate: periodDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Recompute полностью перезаписывает агрегат из набора сессий корзины.
// Сессия с лучшим WPM и сессия с лучшей точностью выбираются независимо.
// Пустой набор обнуляет запись: такое возможно только при фоновом
// пересчёте после удаления сессий.
func (e *Entry) Recompute(sessions []*session.TypingSession) {
	e.UpdatedAt = time.Now()

	if len(sessions) == 0 {
		e.BestWPM = 0
		e.BestAccuracy = 0
		e.OverallScore = 0
		e.SessionCount = 0
		e.BestWPMSessionID = ""
		e.BestAccuracySessionID = ""
		return
	}

	bestWPM := sessions[0]
	bestAcc := sessions[0]
	for _, s := range sessions[1:] {
		if s.WPM > bestWPM.WPM {
			bestWPM = s
		}
		if s.Accuracy > bestAcc.Accuracy {
			bestAcc = s
		}
	}

	e.BestWPM = bestWPM.WPM
	e.BestAccuracy = bestAcc.Accuracy
	e.OverallScore = ComputeOverallScore(bestWPM.WPM, bestAcc.Accuracy)
	e.SessionCount = len(sessions)
	e.BestWPMSessionID = bestWPM.ID
	e.BestAccuracySessionID = bestAcc.ID
}
