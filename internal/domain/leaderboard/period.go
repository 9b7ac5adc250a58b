// Package leaderboard содержит доменную модель лидерборда TypeFlow.
// Лидерборд - это материализованное представление поверх истории сессий:
// источником истины всегда остаются сессии, и любую запись можно
// пересчитать с нуля.
package leaderboard

import (
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIODS
// Четыре пересекающихся временных окна. Каждая сессия попадает сразу в
// четыре корзины: день, ISO-неделя (с понедельника), месяц и "за всё время".
// ══════════════════════════════════════════════════════════════════════════════

// Period определяет вид временного окна лидерборда.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all_time"
)

// AllPeriods возвращает все периоды в порядке пересчёта.
func AllPeriods() []Period {
	return []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime}
}

// ParsePeriod разбирает строку в Period.
// Возвращает shared.ErrInvalidPeriod для неизвестных значений.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return p, nil
	}
	return "", shared.ErrInvalidPeriod
}

// String возвращает строковое представление периода.
func (p Period) String() string {
	return string(p)
}

// IsValid проверяет корректность периода.
func (p Period) IsValid() bool {
	_, err := ParsePeriod(string(p))
	return err == nil
}

// Сентинельные границы корзины "за всё время": все сессии сворачиваются
// в одну корзину с датой 2000-01-01, диапазон заведомо шире любых
// реалистичных меток времени.
var (
	allTimeBucket   = func() time.Time { return timeutil.Date(2000, 1, 1) }
	allTimeRangeEnd = func() time.Time { return timeutil.Date(2100, 1, 1) }
)

// BucketDate возвращает каноническую дату корзины, содержащей момент t.
// Это ключ идентичности записи лидерборда: (user, period, BucketDate).
//   - daily:   полночь календарного дня t;
//   - weekly:  понедельник ISO-недели t, полночь;
//   - monthly: первое число месяца t, полночь;
//   - all_time: фиксированная сентинельная дата.
func (p Period) BucketDate(t time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return timeutil.StartOfDay(t)
	case PeriodWeekly:
		return timeutil.StartOfWeek(t)
	case PeriodMonthly:
		return timeutil.StartOfMonth(t)
	default:
		return allTimeBucket()
	}
}

// RangeAt возвращает границы [start, end] корзины, содержащей момент t.
// Для исторических сессий это диапазон ИХ корзины, а не текущей недели
// или месяца: движок агрегации обязан пересчитывать именно ту корзину,
// в которую попала сессия.
func (p Period) RangeAt(t time.Time) (start, end time.Time) {
	switch p {
	case PeriodDaily:
		return timeutil.StartOfDay(t), timeutil.EndOfDay(t)
	case PeriodWeekly:
		return timeutil.StartOfWeek(t), timeutil.EndOfWeek(t)
	case PeriodMonthly:
		return timeutil.StartOfMonth(t), timeutil.EndOfMonth(t)
	default:
		return allTimeBucket(), allTimeRangeEnd()
	}
}

// CurrentRange возвращает границы корзины, актуальной прямо сейчас.
// Используется читающей стороной ("текущий день/неделя/месяц").
func (p Period) CurrentRange() (start, end time.Time) {
	return p.RangeAt(timeutil.Now())
}
