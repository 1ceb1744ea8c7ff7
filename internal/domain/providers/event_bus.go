package providers

import (
	"context"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// EventBus publishes outreach events for operator tooling and streams them
// back to subscribers.
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.OutreachEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.OutreachEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}
