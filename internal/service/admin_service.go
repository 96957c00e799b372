package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrRequestInFlight is returned when an idempotency key is claimed but its
// request has not produced an order yet
var ErrRequestInFlight = errors.New("request with this idempotency key is still in progress")

const keyStoreAttempts = 3

// EventSink receives the events of every successful command
type EventSink interface {
	Name() string
	Apply(ctx context.Context, events ...models.Event) error
}

// IdempotencyStore remembers request keys across retries
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
}

// AdminService is the single write path into the catalog. Commands run one
// at a time and their events reach every sink in command order.
type AdminService struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	sinks    []EventSink
	keys     IdempotencyStore
	keyTTL   time.Duration
	// pause between attempts to store a created order under its key
	keyRetry time.Duration
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(c *catalog.Catalog, sinks ...EventSink) *AdminService {
	return &AdminService{
		catalog:  c,
		sinks:    sinks,
		keyRetry: 100 * time.Millisecond,
		logger:   util.GetLogger(),
	}
}

// UseIdempotency enables idempotency keys on PlaceOrder
func (s *AdminService) UseIdempotency(keys IdempotencyStore, ttl time.Duration) {
	s.keys = keys
	s.keyTTL = ttl
}

// Catalog exposes the core for queries
func (s *AdminService) Catalog() *catalog.Catalog {
	return s.catalog
}

// command runs fn under the write lock, records its outcome and dispatches its events
func command[T any](ctx context.Context, s *AdminService, name string, fn func() (T, models.Events, error)) (T, error) {
	ctx, span := util.StartSpan(ctx, "AdminService."+name, attribute.String("command", name))
	defer span.End()

	start := time.Now()
	defer func() {
		util.CommandLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	result, events, err := fn()
	if err != nil {
		code := catalog.ErrorCode(err)
		util.CommandsTotal.WithLabelValues(name, strings.ToLower(code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		s.recordRejection(name, err)
		return result, err
	}

	util.CommandsTotal.WithLabelValues(name, "success").Inc()
	span.SetAttributes(attribute.Int("events", len(events)))
	s.dispatch(ctx, events)
	return result, nil
}

// exec is command for operations without a primary result
func exec(ctx context.Context, s *AdminService, name string, fn func() (models.Events, error)) error {
	_, err := command(ctx, s, name, func() (struct{}, models.Events, error) {
		events, err := fn()
		return struct{}{}, events, err
	})
	return err
}

func (s *AdminService) recordRejection(name string, err error) {
	var depErr *catalog.DependencyError
	if errors.As(err, &depErr) {
		util.DeletesRefusedTotal.WithLabelValues(string(depErr.Entity)).Inc()
		s.logger.Warn("Delete refused",
			zap.String("entity", string(depErr.Entity)),
			zap.String("id", depErr.ID),
			zap.Int("subcategories", depErr.Subcategories),
			zap.Int("products", depErr.Products))
		return
	}
	if name == "FulfillOrder" {
		util.FulfillmentsRejectedTotal.WithLabelValues(strings.ToLower(catalog.ErrorCode(err))).Inc()
	}
}

// dispatch hands events to every sink. Sink failures are logged and counted
// but never undo the in-memory change.
func (s *AdminService) dispatch(ctx context.Context, events models.Events) {
	if len(events) == 0 {
		return
	}

	for _, sink := range s.sinks {
		sinkCtx, span := util.StartSpan(ctx, "sink."+sink.Name(), attribute.Int("events", len(events)))
		if err := sink.Apply(sinkCtx, events...); err != nil {
			util.EventsDispatchedTotal.WithLabelValues(sink.Name(), "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "sink failed")
			s.logger.Error("Failed to dispatch events",
				zap.String("sink", sink.Name()),
				zap.Strings("event_types", events.Types()),
				zap.Error(err))
		} else {
			util.EventsDispatchedTotal.WithLabelValues(sink.Name(), "success").Inc()
		}
		span.End()
	}

	for _, e := range events.Filter(models.EventTypeAlertsChanged) {
		if change, ok := e.Data.(models.AlertsChange); ok {
			util.ActiveAlerts.Set(float64(len(change.Current)))
		}
	}
}

// Products

// AddProduct creates a product
func (s *AdminService) AddProduct(ctx context.Context, in catalog.ProductInput) (models.Product, error) {
	return command(ctx, s, "AddProduct", func() (models.Product, models.Events, error) {
		return s.catalog.AddProduct(in)
	})
}

// UpdateProduct applies a partial update to a product
func (s *AdminService) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (models.Product, error) {
	return command(ctx, s, "UpdateProduct", func() (models.Product, models.Events, error) {
		return s.catalog.UpdateProduct(id, patch)
	})
}

// DeleteProduct removes a product and its alert
func (s *AdminService) DeleteProduct(ctx context.Context, id string) error {
	return exec(ctx, s, "DeleteProduct", func() (models.Events, error) {
		return s.catalog.DeleteProduct(id)
	})
}

// Inventory

// UpdateInventory sets the stock level of a product
func (s *AdminService) UpdateInventory(ctx context.Context, productID string, quantity int) (models.Product, error) {
	return command(ctx, s, "UpdateInventory", func() (models.Product, models.Events, error) {
		return s.catalog.UpdateInventory(productID, quantity)
	})
}

// AdjustInventory changes the stock level by delta, never below zero
func (s *AdminService) AdjustInventory(ctx context.Context, productID string, delta int) (models.Product, error) {
	return command(ctx, s, "AdjustInventory", func() (models.Product, models.Events, error) {
		return s.catalog.AdjustInventory(productID, delta)
	})
}

// DismissAlert hides the alert of a product until its stock changes
func (s *AdminService) DismissAlert(ctx context.Context, productID string) error {
	return exec(ctx, s, "DismissAlert", func() (models.Events, error) {
		return s.catalog.DismissAlert(productID)
	})
}

// Taxonomy

// AddCategory creates a category
func (s *AdminService) AddCategory(ctx context.Context, in catalog.CategoryInput) (models.Category, error) {
	return command(ctx, s, "AddCategory", func() (models.Category, models.Events, error) {
		return s.catalog.AddCategory(in)
	})
}

// UpdateCategory renames a category
func (s *AdminService) UpdateCategory(ctx context.Context, id string, patch catalog.NamePatch) (models.Category, error) {
	return command(ctx, s, "UpdateCategory", func() (models.Category, models.Events, error) {
		return s.catalog.UpdateCategory(id, patch)
	})
}

// DeleteCategory removes a category that nothing references
func (s *AdminService) DeleteCategory(ctx context.Context, id string) error {
	return exec(ctx, s, "DeleteCategory", func() (models.Events, error) {
		return s.catalog.DeleteCategory(id)
	})
}

// AddSubcategory creates a subcategory under an existing category
func (s *AdminService) AddSubcategory(ctx context.Context, in catalog.SubcategoryInput) (models.Subcategory, error) {
	return command(ctx, s, "AddSubcategory", func() (models.Subcategory, models.Events, error) {
		return s.catalog.AddSubcategory(in)
	})
}

// UpdateSubcategory renames or moves a subcategory
func (s *AdminService) UpdateSubcategory(ctx context.Context, id string, patch catalog.SubcategoryPatch) (models.Subcategory, error) {
	return command(ctx, s, "UpdateSubcategory", func() (models.Subcategory, models.Events, error) {
		return s.catalog.UpdateSubcategory(id, patch)
	})
}

// DeleteSubcategory removes a subcategory that no product references
func (s *AdminService) DeleteSubcategory(ctx context.Context, id string) error {
	return exec(ctx, s, "DeleteSubcategory", func() (models.Events, error) {
		return s.catalog.DeleteSubcategory(id)
	})
}

// AddBrand creates a brand
func (s *AdminService) AddBrand(ctx context.Context, in catalog.BrandInput) (models.Brand, error) {
	return command(ctx, s, "AddBrand", func() (models.Brand, models.Events, error) {
		return s.catalog.AddBrand(in)
	})
}

// UpdateBrand renames a brand
func (s *AdminService) UpdateBrand(ctx context.Context, id string, patch catalog.NamePatch) (models.Brand, error) {
	return command(ctx, s, "UpdateBrand", func() (models.Brand, models.Events, error) {
		return s.catalog.UpdateBrand(id, patch)
	})
}

// DeleteBrand removes a brand that no product references
func (s *AdminService) DeleteBrand(ctx context.Context, id string) error {
	return exec(ctx, s, "DeleteBrand", func() (models.Events, error) {
		return s.catalog.DeleteBrand(id)
	})
}

// Orders

// AddOrder records an order and its purchase activity
func (s *AdminService) AddOrder(ctx context.Context, in catalog.OrderInput) (models.Order, error) {
	return command(ctx, s, "AddOrder", func() (models.Order, models.Events, error) {
		return s.catalog.AddOrder(in)
	})
}

// PlaceOrder creates an order at most once per idempotency key. A retried
// key returns the order created the first time with duplicate set.
func (s *AdminService) PlaceOrder(ctx context.Context, key string, in catalog.OrderInput) (order models.Order, duplicate bool, err error) {
	if key == "" || s.keys == nil {
		order, err = s.AddOrder(ctx, in)
		return order, false, err
	}

	claimed, err := s.keys.ClaimIdempotencyKey(ctx, key, s.keyTTL)
	if err != nil {
		return models.Order{}, false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if !claimed {
		orderID, err := s.keys.GetIdempotencyKey(ctx, key)
		if err != nil {
			return models.Order{}, false, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if existing, err := s.catalog.Order(orderID); err == nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", key),
				zap.String("order_id", existing.ID))
			return existing, true, nil
		}
		return models.Order{}, false, ErrRequestInFlight
	}

	order, err = s.AddOrder(ctx, in)
	if err != nil {
		if relErr := s.keys.ReleaseIdempotencyKey(ctx, key); relErr != nil {
			s.logger.Error("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(relErr))
		}
		return models.Order{}, false, err
	}

	s.storeOrderKey(ctx, key, order.ID)
	return order, false, nil
}

// storeOrderKey replaces the "processing" claim with the created order id.
// Requests repeating key are refused as in flight until this succeeds.
func (s *AdminService) storeOrderKey(ctx context.Context, key, orderID string) {
	err := ctx.Err()
	for attempt := 1; attempt <= keyStoreAttempts && ctx.Err() == nil; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(attempt-1) * s.keyRetry)
		}
		if err = s.keys.SetIdempotencyKey(ctx, key, orderID, s.keyTTL); err == nil {
			return
		}
	}
	s.logger.Error("Failed to store idempotency key, order needs reconciliation",
		zap.String("idempotency_key", key),
		zap.String("order_id", orderID),
		zap.Error(err))
}

// UpdateOrderStatus moves an order forward without touching stock
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	return command(ctx, s, "UpdateOrderStatus", func() (models.Order, models.Events, error) {
		return s.catalog.UpdateOrderStatus(id, status)
	})
}

// FulfillOrder ships an order, deducting stock for every line or none
func (s *AdminService) FulfillOrder(ctx context.Context, id string) (models.Order, error) {
	order, err := command(ctx, s, "FulfillOrder", func() (models.Order, models.Events, error) {
		return s.catalog.FulfillOrder(id)
	})
	if err != nil {
		return order, err
	}

	util.OrdersFulfilledTotal.Inc()
	s.logger.Info("Order fulfilled", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))
	return order, nil
}

// Users and activity

// AddUser creates a user
func (s *AdminService) AddUser(ctx context.Context, in catalog.UserInput) (models.User, error) {
	return command(ctx, s, "AddUser", func() (models.User, models.Events, error) {
		return s.catalog.AddUser(in)
	})
}

// UpdateUser applies a partial update to a user
func (s *AdminService) UpdateUser(ctx context.Context, id string, patch catalog.UserPatch) (models.User, error) {
	return command(ctx, s, "UpdateUser", func() (models.User, models.Events, error) {
		return s.catalog.UpdateUser(id, patch)
	})
}

// DeleteUser removes a user and their activity
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return exec(ctx, s, "DeleteUser", func() (models.Events, error) {
		return s.catalog.DeleteUser(id)
	})
}

// RecordLogin stamps the last login and logs it
func (s *AdminService) RecordLogin(ctx context.Context, id string) (models.User, error) {
	return command(ctx, s, "RecordLogin", func() (models.User, models.Events, error) {
		return s.catalog.RecordLogin(id)
	})
}

// LogActivity appends an activity record
func (s *AdminService) LogActivity(ctx context.Context, in catalog.ActivityInput) (models.ActivityLog, error) {
	return command(ctx, s, "LogActivity", func() (models.ActivityLog, models.Events, error) {
		return s.catalog.LogActivity(in)
	})
}

// ReplaceCollection bulk-loads a collection and lets every sink rewrite its copy
func (s *AdminService) ReplaceCollection(ctx context.Context, entity models.EntityType, records any) error {
	return exec(ctx, s, "ReplaceCollection", func() (models.Events, error) {
		return s.catalog.ReplaceCollection(entity, records)
	})
}
