package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

func TestRecordSession_PersistsAndPublishes(t *testing.T) {
	sessions := newFakeSessionRepo()
	publisher := &fakePublisher{}
	handler := NewRecordSessionHandler(sessions, publisher)

	s, err := handler.Handle(context.Background(), RecordSessionCommand{
		UserID:          "u-1",
		Text:            "the quick brown fox",
		UserInput:       "the quick brown fox",
		WPM:             64.2,
		Accuracy:        97.5,
		DurationSeconds: 42,
		SessionType:     "test",
		Difficulty:      "advanced",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	stored, err := sessions.GetByID(context.Background(), s.ID)
	assert.NoError(t, err)
	assert.Equal(t, 64.2, stored.WPM)

	assert.Len(t, publisher.events, 1)
	recorded, ok := publisher.events[0].(shared.SessionRecordedEvent)
	assert.True(t, ok)
	assert.Equal(t, s.ID, recorded.AggregateID())
	assert.Equal(t, "u-1", recorded.UserID)
	assert.Equal(t, 64.2, recorded.WPM)
}

func TestRecordSession_DomainValidationFailureDoesNotPublish(t *testing.T) {
	sessions := newFakeSessionRepo()
	publisher := &fakePublisher{}
	handler := NewRecordSessionHandler(sessions, publisher)

	_, err := handler.Handle(context.Background(), RecordSessionCommand{
		UserID:          "u-1",
		Text:            "sample",
		Accuracy:        150,
		DurationSeconds: 30,
	})

	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	assert.Empty(t, publisher.events)
	assert.Empty(t, sessions.sessions)
}

func TestRecordSession_RequiresUserAndText(t *testing.T) {
	handler := NewRecordSessionHandler(newFakeSessionRepo(), nil)

	_, err := handler.Handle(context.Background(), RecordSessionCommand{Text: "sample"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), RecordSessionCommand{UserID: "u-1"})
	assert.Error(t, err)
}

func TestRecordSession_PublishFailureDoesNotFailCommand(t *testing.T) {
	sessions := newFakeSessionRepo()
	publisher := &fakePublisher{publishErr: errors.New("bus closed")}
	handler := NewRecordSessionHandler(sessions, publisher)

	s, err := handler.Handle(context.Background(), RecordSessionCommand{
		UserID:          "u-1",
		Text:            "sample",
		WPM:             50,
		Accuracy:        90,
		DurationSeconds: 20,
	})

	// Сессия сохранена: потерянное событие догонит фоновая пересборка.
	assert.NoError(t, err)
	_, err = sessions.GetByID(context.Background(), s.ID)
	assert.NoError(t, err)
}

func TestRecordSession_NilPublisher(t *testing.T) {
	handler := NewRecordSessionHandler(newFakeSessionRepo(), nil)

	s, err := handler.Handle(context.Background(), RecordSessionCommand{
		UserID:          "u-1",
		Text:            "sample",
		WPM:             50,
		Accuracy:        90,
		DurationSeconds: 20,
	})

	assert.NoError(t, err)
	assert.NotNil(t, s)
}
