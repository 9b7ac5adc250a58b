package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/application/command"
	"github.com/typeflow-app/typeflow-backend/internal/domain/leaderboard"
	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// Minimal fakes: enough repository surface to drive the recompute path.
// ─────────────────────────────────────────────────────────────────────────────

type stubSessionRepo struct {
	session *session.TypingSession
}

func (r *stubSessionRepo) Create(context.Context, *session.TypingSession) error { return nil }

func (r *stubSessionRepo) GetByID(_ context.Context, id string) (*session.TypingSession, error) {
	if r.session != nil && r.session.ID == id {
		return r.session, nil
	}
	return nil, shared.ErrSessionNotFound
}

func (r *stubSessionRepo) Update(context.Context, *session.TypingSession) error { return nil }
func (r *stubSessionRepo) Delete(context.Context, string) error                 { return nil }

func (r *stubSessionRepo) ListByUser(context.Context, string, session.ListFilter) ([]*session.TypingSession, error) {
	return nil, nil
}

func (r *stubSessionRepo) CountByUser(context.Context, string, session.ListFilter) (int, error) {
	return 0, nil
}

func (r *stubSessionRepo) FindByUserInRange(context.Context, string, time.Time, time.Time) ([]*session.TypingSession, error) {
	if r.session == nil {
		return nil, nil
	}
	return []*session.TypingSession{r.session}, nil
}

func (r *stubSessionRepo) ListAllByUser(context.Context, string) ([]*session.TypingSession, error) {
	return nil, nil
}

type stubLeaderboardRepo struct {
	upserts int
	stored  map[string]*leaderboard.Entry
}

func stubEntryKey(userID string, period leaderboard.Period, date time.Time) string {
	return userID + "|" + string(period) + "|" + date.Format("2006-01-02")
}

func (r *stubLeaderboardRepo) Upsert(_ context.Context, e *leaderboard.Entry) error {
	r.upserts++
	if r.stored == nil {
		r.stored = make(map[string]*leaderboard.Entry)
	}
	clone := *e
	r.stored[stubEntryKey(e.UserID, e.Period, e.PeriodDate)] = &clone
	return nil
}

func (r *stubLeaderboardRepo) Get(_ context.Context, userID string, period leaderboard.Period, date time.Time) (*leaderboard.Entry, error) {
	if e, ok := r.stored[stubEntryKey(userID, period, date)]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, shared.ErrEntryNotFound
}

func (r *stubLeaderboardRepo) ListUserEntries(_ context.Context, userID string) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range r.stored {
		if e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubLeaderboardRepo) Page(context.Context, leaderboard.PageQuery) ([]*leaderboard.RankedEntry, error) {
	return nil, nil
}

func (r *stubLeaderboardRepo) Count(context.Context, leaderboard.Filter) (int, error) {
	return 0, nil
}

func (r *stubLeaderboardRepo) CountGreater(context.Context, leaderboard.Filter, leaderboard.Category, float64) (int, error) {
	return 0, nil
}

func (r *stubLeaderboardRepo) FindUserEntry(context.Context, leaderboard.Filter, string) (*leaderboard.RankedEntry, error) {
	return nil, shared.ErrEntryNotFound
}

type stubInvalidator struct {
	calls int
	err   error
}

func (c *stubInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

type stubBus struct {
	subscriptions map[shared.EventType][]shared.EventHandler
	err           error
}

func (b *stubBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if b.err != nil {
		return b.err
	}
	if b.subscriptions == nil {
		b.subscriptions = make(map[shared.EventType][]shared.EventHandler)
	}
	b.subscriptions[eventType] = append(b.subscriptions[eventType], handler)
	return nil
}

func recordedFixture(t *testing.T) (*session.TypingSession, shared.SessionRecordedEvent) {
	t.Helper()
	timeutil.SetLocation(time.UTC)
	s, err := session.New(session.Params{
		UserID:          "u-1",
		Text:            "sample",
		WPM:             70,
		Accuracy:        95,
		DurationSeconds: 30,
	})
	assert.NoError(t, err)
	return s, shared.NewSessionRecordedEvent(s.ID, s.UserID, s.WPM, s.Accuracy, s.CreatedAt)
}

func TestOnSessionRecorded_RecomputesAndInvalidates(t *testing.T) {
	s, event := recordedFixture(t)
	entries := &stubLeaderboardRepo{}
	cache := &stubInvalidator{}
	update := command.NewUpdateLeaderboardHandler(&stubSessionRepo{session: s}, entries, nil)
	handler := NewOnSessionRecorded(update, cache, nil)

	err := handler.Handle(context.Background(), event)

	assert.NoError(t, err)
	// По одной записи на каждый период.
	assert.Equal(t, 4, entries.upserts)
	assert.Equal(t, 1, cache.calls)
}

func TestOnSessionRecorded_CacheFailureIsNotFatal(t *testing.T) {
	s, event := recordedFixture(t)
	update := command.NewUpdateLeaderboardHandler(&stubSessionRepo{session: s}, &stubLeaderboardRepo{}, nil)
	cache := &stubInvalidator{err: errors.New("redis down")}
	handler := NewOnSessionRecorded(update, cache, nil)

	err := handler.Handle(context.Background(), event)

	assert.NoError(t, err)
}

func TestOnSessionRecorded_RecomputeErrorReturnedToBus(t *testing.T) {
	_, event := recordedFixture(t)
	// Сессии нет в хранилище - пересчёт падает.
	update := command.NewUpdateLeaderboardHandler(&stubSessionRepo{}, &stubLeaderboardRepo{}, nil)
	cache := &stubInvalidator{}
	handler := NewOnSessionRecorded(update, cache, nil)

	err := handler.Handle(context.Background(), event)

	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	assert.Zero(t, cache.calls)
}

func TestOnSessionRecorded_RejectsWrongEventType(t *testing.T) {
	s, _ := recordedFixture(t)
	update := command.NewUpdateLeaderboardHandler(&stubSessionRepo{session: s}, &stubLeaderboardRepo{}, nil)
	handler := NewOnSessionRecorded(update, nil, nil)

	err := handler.Handle(context.Background(), shared.NewSessionDeletedEvent("s-1", "u-1", time.Now()))

	assert.Error(t, err)
}

func TestOnSessionDeleted_SettlesHistoricalBuckets(t *testing.T) {
	timeutil.SetLocation(time.UTC)

	s, err := session.New(session.Params{
		UserID:          "u-1",
		Text:            "sample",
		WPM:             120,
		Accuracy:        98,
		DurationSeconds: 30,
	})
	assert.NoError(t, err)
	// Сессия двухмесячной давности: её корзины давно не текущие.
	s.CreatedAt = time.Now().AddDate(0, -2, 0)

	sessions := &stubSessionRepo{session: s}
	entries := &stubLeaderboardRepo{}
	update := command.NewUpdateLeaderboardHandler(sessions, entries, nil)

	_, err = update.Handle(context.Background(), command.UpdateLeaderboardCommand{SessionID: s.ID})
	assert.NoError(t, err)

	dailyDate := leaderboard.PeriodDaily.BucketDate(s.CreatedAt)
	before, err := entries.Get(context.Background(), "u-1", leaderboard.PeriodDaily, dailyDate)
	assert.NoError(t, err)
	assert.Equal(t, 1, before.SessionCount)
	assert.Equal(t, 120.0, before.BestWPM)

	// Сессия удалена: хранилище больше её не отдаёт.
	sessions.session = nil

	cache := &stubInvalidator{}
	handler := NewOnSessionDeleted(update, cache, nil)
	err = handler.Handle(context.Background(), shared.NewSessionDeletedEvent(s.ID, s.UserID, s.CreatedAt))
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.calls)

	after, err := entries.Get(context.Background(), "u-1", leaderboard.PeriodDaily, dailyDate)
	assert.NoError(t, err)
	assert.Equal(t, 0, after.SessionCount)
	assert.Zero(t, after.BestWPM)
}

func TestOnSessionDeleted_CacheFailureIsNotFatal(t *testing.T) {
	update := command.NewUpdateLeaderboardHandler(&stubSessionRepo{}, &stubLeaderboardRepo{}, nil)
	cache := &stubInvalidator{err: errors.New("redis down")}
	handler := NewOnSessionDeleted(update, cache, nil)

	err := handler.Handle(context.Background(), shared.NewSessionDeletedEvent("s-1", "u-1", time.Now()))

	assert.NoError(t, err)
	assert.Equal(t, 1, cache.calls)
}

func TestRegister_SubscribesDeclaredTypes(t *testing.T) {
	bus := &stubBus{}
	recorded := NewOnSessionRecorded(nil, nil, nil)
	deleted := NewOnSessionDeleted(nil, nil, nil)

	err := Register(bus, recorded, deleted)

	assert.NoError(t, err)
	assert.Len(t, bus.subscriptions[shared.EventSessionRecorded], 1)
	assert.Len(t, bus.subscriptions[shared.EventSessionDeleted], 1)
}

func TestRegister_PropagatesSubscribeError(t *testing.T) {
	bus := &stubBus{err: errors.New("bus closed")}

	err := Register(bus, NewOnSessionDeleted(nil, nil, nil))

	assert.Error(t, err)
}
