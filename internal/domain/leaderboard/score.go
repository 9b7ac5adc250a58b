package leaderboard

import (
	"math"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE MODEL
// Четыре категории рейтинга. Каждая категория привязана ровно к одному
// полю записи: по нему сортируется выборка и из него считается
// отображаемый счёт. Привязка задана явной таблицей, а не строковым
// ключом в запись.
// ══════════════════════════════════════════════════════════════════════════════

// Category определяет категорию рейтинга.
type Category string

const (
	// CategoryOverall - комбинированный счёт: 60% скорость + 40% точность.
	CategoryOverall Category = "overall"

	// CategorySpeed - лучший WPM корзины.
	CategorySpeed Category = "speed"

	// CategoryAccuracy - лучшая точность корзины.
	CategoryAccuracy Category = "accuracy"

	// CategoryActivity - количество сессий в корзине.
	CategoryActivity Category = "activity"
)

// AllCategories возвращает все категории в каноническом порядке.
func AllCategories() []Category {
	return []Category{CategoryOverall, CategorySpeed, CategoryAccuracy, CategoryActivity}
}

// ParseCategory разбирает строку в Category.
// Возвращает shared.ErrInvalidCategory для неизвестных значений.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryOverall, CategorySpeed, CategoryAccuracy, CategoryActivity:
		return c, nil
	}
	return "", shared.ErrInvalidCategory
}

// String возвращает строковое представление категории.
func (c Category) String() string {
	return string(c)
}

// Весовые коэффициенты комбинированного счёта.
const (
	overallWPMWeight      = 0.6
	overallAccuracyWeight = 0.4
)

// ComputeOverallScore считает комбинированный счёт без округления.
// Округление применяется только при отображении, не при хранении.
func ComputeOverallScore(bestWPM, bestAccuracy float64) float64 {
	return bestWPM*overallWPMWeight + bestAccuracy*overallAccuracyWeight
}

// categorySpec описывает привязку категории к полю записи.
type categorySpec struct {
	// column - имя столбца хранилища для ORDER BY / сравнения рангов.
	column string

	// orderValue - значение поля, по которому упорядочиваются записи.
	orderValue func(e *Entry) float64

	// displayScore - счёт, отдаваемый наружу (со своим округлением).
	displayScore func(e *Entry) float64
}

var categorySpecs = map[Category]categorySpec{
	CategoryOverall: {
		column:       "overall_score",
		orderValue:   func(e *Entry) float64 { return e.OverallScore },
		displayScore: func(e *Entry) float64 { return math.Round(e.OverallScore) },
	},
	CategorySpeed: {
		column:       "best_wpm",
		orderValue:   func(e *Entry) float64 { return e.BestWPM },
		displayScore: func(e *Entry) float64 { return e.BestWPM },
	},
	CategoryAccuracy: {
		column:       "best_accuracy",
		orderValue:   func(e *Entry) float64 { return e.BestAccuracy },
		displayScore: func(e *Entry) float64 { return math.Round(e.BestAccuracy*10) / 10 },
	},
	CategoryActivity: {
		column:       "session_count",
		orderValue:   func(e *Entry) float64 { return float64(e.SessionCount) },
		displayScore: func(e *Entry) float64 { return float64(e.SessionCount) },
	},
}

// OrderColumn возвращает имя столбца хранилища для сортировки.
// Набор значений закрыт: SQL с этим именем безопасен.
func (c Category) OrderColumn() string {
	return categorySpecs[c].column
}

// OrderValue возвращает значение записи, по которому идёт ранжирование.
func (c Category) OrderValue(e *Entry) float64 {
	return categorySpecs[c].orderValue(e)
}

// Score возвращает отображаемый счёт записи в данной категории.
func (c Category) Score(e *Entry) float64 {
	return categorySpecs[c].displayScore(e)
}
