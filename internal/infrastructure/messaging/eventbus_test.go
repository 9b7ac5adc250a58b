package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestPublish_DeliversToSubscribedType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	recorded := &recordingHandler{}
	deleted := &recordingHandler{}
	assert.NoError(t, bus.Subscribe(shared.EventSessionRecorded, recorded))
	assert.NoError(t, bus.Subscribe(shared.EventSessionDeleted, deleted))

	event := shared.NewSessionRecordedEvent("s-1", "u-1", 75, 95, time.Now())
	assert.NoError(t, bus.Publish(event))

	assert.Equal(t, 1, recorded.count())
	assert.Zero(t, deleted.count())
}

func TestPublish_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	all := &recordingHandler{}
	assert.NoError(t, bus.SubscribeAll(all))

	assert.NoError(t, bus.Publish(shared.NewSessionRecordedEvent("s-1", "u-1", 75, 95, time.Now())))
	assert.NoError(t, bus.Publish(shared.NewSessionDeletedEvent("s-1", "u-1", time.Now())))

	assert.Equal(t, 2, all.count())
}

func TestPublish_SyncHandlerErrorIsSwallowed(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	failing := &recordingHandler{err: errors.New("projection down")}
	healthy := &recordingHandler{}
	assert.NoError(t, bus.Subscribe(shared.EventSessionRecorded, failing))
	assert.NoError(t, bus.Subscribe(shared.EventSessionRecorded, healthy))

	// Ошибка обработчика логируется, но никогда не доходит до издателя.
	err := bus.Publish(shared.NewSessionRecordedEvent("s-1", "u-1", 75, 95, time.Now()))

	assert.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
}

func TestPublish_AsyncDeliveryCompletesBeforeClose(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	bus := NewInMemoryEventBus(cfg)

	handler := &recordingHandler{}
	assert.NoError(t, bus.Subscribe(shared.EventSessionRecorded, handler))

	for i := 0; i < 5; i++ {
		assert.NoError(t, bus.Publish(shared.NewSessionRecordedEvent("s-1", "u-1", 75, 95, time.Now())))
	}

	// Close дожидается всех запущенных обработчиков.
	assert.NoError(t, bus.Close())
	assert.Equal(t, 5, handler.count())
}

func TestPublish_AfterCloseFails(t *testing.T) {
	bus := syncBus()
	assert.NoError(t, bus.Close())

	err := bus.Publish(shared.NewSessionDeletedEvent("s-1", "u-1", time.Now()))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventSessionRecorded, &recordingHandler{})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestClose_Idempotent(t *testing.T) {
	bus := syncBus()

	assert.NoError(t, bus.Close())
	assert.NoError(t, bus.Close())
}

func TestPublish_NilEventAndHandlerRejected(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventSessionRecorded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

func TestMetrics_CountsPublishesAndExecutions(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	handler := &recordingHandler{}
	assert.NoError(t, bus.Subscribe(shared.EventSessionRecorded, handler))

	assert.NoError(t, bus.Publish(shared.NewSessionRecordedEvent("s-1", "u-1", 75, 95, time.Now())))
	assert.NoError(t, bus.Publish(shared.NewSessionRecordedEvent("s-2", "u-1", 80, 96, time.Now())))

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalPublished)
	assert.Equal(t, int64(2), snapshot.TotalSucceeded)
	assert.Zero(t, snapshot.TotalFailed)
	assert.Equal(t, 1.0, snapshot.SuccessRate)
}
