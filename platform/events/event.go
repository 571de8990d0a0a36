// Package events is the in-process publish/subscribe layer modules use to
// react to each other's changes without importing each other.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is anything published on a Bus. The name is the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the time an event happened. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return NewBaseEventAt(time.Now())
}

// NewBaseEventAt stamps an event with t, for publishers that run on an
// injected clock.
func NewBaseEventAt(t time.Time) BaseEvent {
	return BaseEvent{Timestamp: t.UTC()}
}

// Handler consumes events it was subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their name.
type Bus interface {
	// Publish hands event to its handlers without waiting for them. Handler
	// failures are never reported to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync runs every handler before returning and reports their
	// combined error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe adds handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}
