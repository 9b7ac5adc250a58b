// Package shared contains common domain types, errors and events that are
// used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven pieces of the backend.
// The most important one is session.recorded: it decouples session creation
// from leaderboard recomputation, so a slow or failing recompute can never
// fail the HTTP request that recorded the session.
const (
	// User events
	EventUserRegistered EventType = "user.registered"
	EventUserUpdated    EventType = "user.updated"

	// Typing session events
	EventSessionRecorded EventType = "session.recorded"
	EventSessionUpdated  EventType = "session.updated"
	EventSessionDeleted  EventType = "session.deleted"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// EventHandler processes a single event. Returning an error only affects
// bus-level logging and metrics; it is never propagated to the publisher.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a new user registers.
type UserRegisteredEvent struct {
	BaseEvent
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, username, email string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent: NewBaseEvent(EventUserRegistered, userID),
		Username:  username,
		Email:     email,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Typing Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionRecordedEvent is emitted when a completed typing session is stored.
// Subscribers use it to trigger leaderboard recomputation.
type SessionRecordedEvent struct {
	BaseEvent
	UserID    string    `json:"user_id"`
	WPM       float64   `json:"wpm"`
	Accuracy  float64   `json:"accuracy"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionRecordedEvent creates a new SessionRecordedEvent.
// The aggregate ID is the session ID.
func NewSessionRecordedEvent(sessionID, userID string, wpm, accuracy float64, createdAt time.Time) SessionRecordedEvent {
	return SessionRecordedEvent{
		BaseEvent: NewBaseEvent(EventSessionRecorded, sessionID),
		UserID:    userID,
		WPM:       wpm,
		Accuracy:  accuracy,
		CreatedAt: createdAt,
	}
}

// SessionDeletedEvent is emitted when a typing session is removed.
// CreatedAt is the deleted session's timestamp, so subscribers can
// recompute exactly the period buckets it contributed to.
type SessionDeletedEvent struct {
	BaseEvent
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionDeletedEvent creates a new SessionDeletedEvent.
func NewSessionDeletedEvent(sessionID, userID string, createdAt time.Time) SessionDeletedEvent {
	return SessionDeletedEvent{
		BaseEvent: NewBaseEvent(EventSessionDeleted, sessionID),
		UserID:    userID,
		CreatedAt: createdAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted after a user's period entries were
// recomputed from a new session.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	UserID  string   `json:"user_id"`
	Periods []string `json:"periods"`
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent.
func NewLeaderboardUpdatedEvent(userID string, periods []string) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardUpdated, userID),
		UserID:    userID,
		Periods:   periods,
	}
}
