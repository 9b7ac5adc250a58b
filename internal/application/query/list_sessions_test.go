package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/domain/session"
	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
	"github.com/typeflow-app/typeflow-backend/pkg/timeutil"
)

func TestListSessions_NewestFirst(t *testing.T) {
	timeutil.SetLocation(time.UTC)
	now := timeutil.Now()

	old := statsSession("u-1", 50, 90, 30, now.Add(-2*time.Hour))
	recent := statsSession("u-1", 70, 95, 30, now)
	foreign := statsSession("u-2", 99, 99, 30, now)
	repo := &fakeSessionRepo{sessions: []*session.TypingSession{old, recent, foreign}}
	handler := NewListSessionsHandler(repo)

	list, err := handler.Handle(context.Background(), ListSessionsQuery{UserID: "u-1"})

	assert.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Sessions, 2)
	assert.Equal(t, recent.ID, list.Sessions[0].ID)
	assert.Equal(t, old.ID, list.Sessions[1].ID)
}

func TestListSessions_Pagination(t *testing.T) {
	timeutil.SetLocation(time.UTC)
	now := timeutil.Now()

	var sessions []*session.TypingSession
	for i := 0; i < 5; i++ {
		sessions = append(sessions, statsSession("u-1", 60, 90, 30, now.Add(-time.Duration(i)*time.Hour)))
	}
	handler := NewListSessionsHandler(&fakeSessionRepo{sessions: sessions})

	list, err := handler.Handle(context.Background(), ListSessionsQuery{UserID: "u-1", Page: 2, Limit: 2})

	assert.NoError(t, err)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 3, list.TotalPages)
	assert.Equal(t, 2, list.CurrentPage)
	assert.Len(t, list.Sessions, 2)
}

func TestListSessions_TypeFilter(t *testing.T) {
	timeutil.SetLocation(time.UTC)
	now := timeutil.Now()

	practice := statsSession("u-1", 60, 90, 30, now.Add(-time.Hour))
	game := statsSession("u-1", 60, 90, 30, now)
	game.SessionType = session.TypeGame
	handler := NewListSessionsHandler(&fakeSessionRepo{sessions: []*session.TypingSession{practice, game}})

	list, err := handler.Handle(context.Background(), ListSessionsQuery{UserID: "u-1", SessionType: "game"})

	assert.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "game", list.Sessions[0].SessionType)
}

func TestListSessions_RejectsUnknownFilters(t *testing.T) {
	handler := NewListSessionsHandler(&fakeSessionRepo{})

	_, err := handler.Handle(context.Background(), ListSessionsQuery{UserID: "u-1", SessionType: "marathon"})
	assert.ErrorIs(t, err, shared.ErrInvalidSessionType)

	_, err = handler.Handle(context.Background(), ListSessionsQuery{UserID: "u-1", Difficulty: "brutal"})
	assert.ErrorIs(t, err, shared.ErrInvalidDifficulty)
}

func TestListSessions_LimitClamped(t *testing.T) {
	q := ListSessionsQuery{UserID: "u-1", Limit: 500}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)

	q = ListSessionsQuery{UserID: "u-1"}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 1, q.Page)
}
