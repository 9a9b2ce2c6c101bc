package providers

import (
	"context"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// ReferenceChangesChannel is the pub/sub channel carrying reference-data
// change events from admin writes.
const ReferenceChangesChannel = "reference.changes"

// EventBus defines the interface for publishing and consuming
// reference-data change events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.ReferenceEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReferenceEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}
