package eventbus

import "context"

// Event is the marker interface for all domain events.
type Event interface {
	Type() string
}

// EventBus defines the contract for publishing and subscribing to domain events.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler func(context.Context, Event))
}
