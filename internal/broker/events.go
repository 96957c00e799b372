package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes catalog events to the outbound topic
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Name identifies the publisher as an event sink
func (ep *EventPublisher) Name() string {
	return "kafka"
}

// Apply publishes a command's events as one batch, keyed by entity
func (ep *EventPublisher) Apply(ctx context.Context, events ...models.Event) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := eventMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return ep.producer.PublishMessages(ctx, msgs...)
}

func eventMessage(e models.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", e.EventType, err)
	}

	key := string(e.Entity)
	if e.EntityID != "" {
		key += "-" + e.EntityID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}, nil
}

// ErrMalformedEvent marks an inbound message that can never be decoded
var ErrMalformedEvent = errors.New("malformed event")

// EventHandler routes inbound storefront events
type EventHandler struct {
	onOrderPlaced  func(context.Context, *models.OrderPlacedEvent) error
	onUserActivity func(context.Context, *models.UserActivityEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderPlaced registers a handler for ORDER_PLACED events
func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

// OnUserActivity registers a handler for USER_ACTIVITY events
func (eh *EventHandler) OnUserActivity(handler func(context.Context, *models.UserActivityEvent) error) {
	eh.onUserActivity = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	baseEvent, err := models.DecodeBase(msg.Value)
	if err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w: %w", ErrMalformedEvent, err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w: %w", ErrMalformedEvent, err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	case models.EventTypeUserActivity:
		if eh.onUserActivity != nil {
			var event models.UserActivityEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal UserActivity event: %w: %w", ErrMalformedEvent, err)
			}
			return eh.onUserActivity(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
