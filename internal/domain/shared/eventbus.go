package shared

import "context"

// EventHandler consumes domain events raised by the billing aggregates.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event type names this handler wants.
	// An empty slice subscribes it to everything.
	EventTypes() []string
}

// EventPublisher is the side the application services see: they drain an
// aggregate's pending events and hand them off here after commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	// Subscribe registers a handler; with no eventTypes it uses the
	// handler's own EventTypes.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is the full contract the in-memory bus implements.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
