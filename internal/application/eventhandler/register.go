package eventhandler

import (
	"fmt"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// Subscriber is an event handler that declares the event types it wants.
type Subscriber interface {
	shared.EventHandler
	EventTypes() []shared.EventType
}

// Bus is the subset of the event bus needed for registration.
type Bus interface {
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
}

// Register subscribes every handler to its declared event types.
func Register(bus Bus, subscribers ...Subscriber) error {
	for _, s := range subscribers {
		for _, t := range s.EventTypes() {
			if err := bus.Subscribe(t, s); err != nil {
				return fmt.Errorf("eventhandler: subscribe %s: %w", t, err)
			}
		}
	}
	return nil
}
