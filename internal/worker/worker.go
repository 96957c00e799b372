package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-admin/internal/broker"
	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/service"
	"catalog-admin/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Commands is the part of the admin service the worker drives
type Commands interface {
	PlaceOrder(ctx context.Context, key string, in catalog.OrderInput) (models.Order, bool, error)
	LogActivity(ctx context.Context, in catalog.ActivityInput) (models.ActivityLog, error)
}

// StorefrontWorker applies storefront events to the catalog exactly once
type StorefrontWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	commands     Commands
	keys         service.IdempotencyStore
	keyTTL       time.Duration
	logger       *zap.Logger
}

// NewStorefrontWorker creates a new storefront worker. keys may be nil,
// in which case redelivered events are applied again.
func NewStorefrontWorker(
	consumer *broker.Consumer,
	commands Commands,
	keys service.IdempotencyStore,
	keyTTL time.Duration,
) *StorefrontWorker {
	w := &StorefrontWorker{
		consumer: consumer,
		commands: commands,
		keys:     keys,
		keyTTL:   keyTTL,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnUserActivity(w.handleUserActivity)
	w.eventHandler = eventHandler
	return w
}

// Start starts the worker
func (w *StorefrontWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting storefront worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *StorefrontWorker) Stop() error {
	w.logger.Info("Stopping storefront worker")
	return w.consumer.Close()
}

// handleMessage drops messages that can never succeed so they are committed
// instead of blocking the partition
func (w *StorefrontWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	err := w.eventHandler.HandleMessage(ctx, msg)
	if errors.Is(err, broker.ErrMalformedEvent) {
		util.StorefrontEventsTotal.WithLabelValues("unknown", "malformed").Inc()
		w.logger.Error("Dropping malformed storefront event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}
	return err
}

func eventKey(eventID string) string {
	if eventID == "" {
		return ""
	}
	return "storefront:" + eventID
}

func (w *StorefrontWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "StorefrontWorker.OrderPlaced")
	defer span.End()

	in := catalog.OrderInput{
		UserID:          event.UserID,
		CustomerName:    event.CustomerName,
		CustomerEmail:   event.CustomerEmail,
		ShippingAddress: event.ShippingAddress,
		Items:           make([]catalog.OrderItemInput, len(event.Items)),
	}
	for i, item := range event.Items {
		price := item.Price
		in.Items[i] = catalog.OrderItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       &price,
		}
	}
	if !event.Total.IsZero() {
		total := event.Total
		in.Total = &total
	}

	order, duplicate, err := w.commands.PlaceOrder(ctx, eventKey(event.EventID), in)
	if err != nil {
		return w.outcome(models.EventTypeOrderPlaced, event.EventID, err)
	}
	if duplicate {
		util.StorefrontEventsTotal.WithLabelValues(models.EventTypeOrderPlaced, "duplicate").Inc()
		w.logger.Info("Duplicate storefront order ignored",
			zap.String("event_id", event.EventID),
			zap.String("order_id", order.ID))
		return nil
	}

	util.StorefrontEventsTotal.WithLabelValues(models.EventTypeOrderPlaced, "success").Inc()
	w.logger.Info("Storefront order recorded",
		zap.String("event_id", event.EventID),
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)))
	return nil
}

func (w *StorefrontWorker) handleUserActivity(ctx context.Context, event *models.UserActivityEvent) error {
	ctx, span := util.StartSpan(ctx, "StorefrontWorker.UserActivity")
	defer span.End()

	key := eventKey(event.EventID)
	if key != "" && w.keys != nil {
		claimed, err := w.keys.ClaimIdempotencyKey(ctx, key, w.keyTTL)
		if err != nil {
			return fmt.Errorf("failed to check idempotency: %w", err)
		}
		if !claimed {
			util.StorefrontEventsTotal.WithLabelValues(models.EventTypeUserActivity, "duplicate").Inc()
			return nil
		}
	}

	entry, err := w.commands.LogActivity(ctx, catalog.ActivityInput{
		UserID:   event.UserID,
		Username: event.Username,
		Action:   event.Action,
		Details:  event.Details,
	})
	if err != nil {
		if key != "" && w.keys != nil && catalog.ErrorCode(err) == catalog.CodeInternal {
			if relErr := w.keys.ReleaseIdempotencyKey(ctx, key); relErr != nil {
				w.logger.Error("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return w.outcome(models.EventTypeUserActivity, event.EventID, err)
	}

	if key != "" && w.keys != nil {
		if err := w.keys.SetIdempotencyKey(ctx, key, entry.ID, w.keyTTL); err != nil {
			w.logger.Error("Failed to store idempotency key", zap.String("key", key), zap.Error(err))
		}
	}
	util.StorefrontEventsTotal.WithLabelValues(models.EventTypeUserActivity, "success").Inc()
	return nil
}

// outcome decides whether a failed event is retried. Domain rejections are
// final and the message is committed; anything else is redelivered.
func (w *StorefrontWorker) outcome(eventType, eventID string, err error) error {
	code := catalog.ErrorCode(err)
	if code != catalog.CodeInternal {
		util.StorefrontEventsTotal.WithLabelValues(eventType, "rejected").Inc()
		w.logger.Warn("Storefront event rejected",
			zap.String("event_type", eventType),
			zap.String("event_id", eventID),
			zap.String("code", code),
			zap.Error(err))
		return nil
	}

	util.StorefrontEventsTotal.WithLabelValues(eventType, "error").Inc()
	return fmt.Errorf("failed to apply %s %s: %w", eventType, eventID, err)
}
