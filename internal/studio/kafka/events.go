package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// EventSink sends domain events straight to Kafka, keyed by aggregate id so
// that one project's events stay ordered. It is used when no outbox table is
// available.
type EventSink struct {
	producer publisher
}

func NewEventSink(p publisher) *EventSink {
	return &EventSink{producer: p}
}

func (s *EventSink) Append(ctx context.Context, e models.DomainEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}
	return s.producer.Publish(ctx, e.AggregateID().String(), payload)
}
