package store

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

var ErrVersionConflict = errors.New("event version conflict")

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// Publisher forwards stored events to the message bus
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// publish forwards a committed event. A failed publish is logged, not
// returned; the event is already stored and replay picks it up.
func publish(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event.AggregateID, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"component":    "eventstore",
			"event_id":     event.ID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID,
		}).Error("[EventStore] Event stored but not published")
	}
}
