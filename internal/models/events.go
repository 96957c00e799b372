package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types emitted by the catalog
const (
	EventTypeProductCreated     = "PRODUCT_CREATED"
	EventTypeProductUpdated     = "PRODUCT_UPDATED"
	EventTypeProductDeleted     = "PRODUCT_DELETED"
	EventTypeCategoryCreated    = "CATEGORY_CREATED"
	EventTypeCategoryUpdated    = "CATEGORY_UPDATED"
	EventTypeCategoryDeleted    = "CATEGORY_DELETED"
	EventTypeSubcategoryCreated = "SUBCATEGORY_CREATED"
	EventTypeSubcategoryUpdated = "SUBCATEGORY_UPDATED"
	EventTypeSubcategoryDeleted = "SUBCATEGORY_DELETED"
	EventTypeBrandCreated       = "BRAND_CREATED"
	EventTypeBrandUpdated       = "BRAND_UPDATED"
	EventTypeBrandDeleted       = "BRAND_DELETED"
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeOrderFulfilled     = "ORDER_FULFILLED"
	EventTypeUserCreated        = "USER_CREATED"
	EventTypeUserUpdated        = "USER_UPDATED"
	EventTypeUserDeleted        = "USER_DELETED"
	EventTypeActivityLogged     = "ACTIVITY_LOGGED"
	EventTypeAlertsChanged      = "ALERTS_CHANGED"
	EventTypeCollectionReplaced = "COLLECTION_REPLACED"
)

// Inbound event types published by the storefront
const (
	EventTypeOrderPlaced  = "ORDER_PLACED"
	EventTypeUserActivity = "USER_ACTIVITY"
)

// EntityType names a catalog collection
type EntityType string

// Collections held by the catalog
const (
	EntityProduct     EntityType = "product"
	EntityCategory    EntityType = "category"
	EntitySubcategory EntityType = "subcategory"
	EntityBrand       EntityType = "brand"
	EntityOrder       EntityType = "order"
	EntityUser        EntityType = "user"
	EntityActivityLog EntityType = "activity_log"
	EntityAlert       EntityType = "inventory_alert"
)

// ParseEntityType maps a collection name to its EntityType
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityProduct, EntityCategory, EntitySubcategory, EntityBrand,
		EntityOrder, EntityUser, EntityActivityLog, EntityAlert:
		return EntityType(s), true
	}
	switch s {
	case "products":
		return EntityProduct, true
	case "categories":
		return EntityCategory, true
	case "subcategories":
		return EntitySubcategory, true
	case "brands":
		return EntityBrand, true
	case "orders":
		return EntityOrder, true
	case "users":
		return EntityUser, true
	case "activity_logs", "activity":
		return EntityActivityLog, true
	case "inventory_alerts", "alerts":
		return EntityAlert, true
	}
	return "", false
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id
func NewBaseEvent(eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: at,
	}
}

// Event is a derived fact produced by a catalog command.
// Data carries a snapshot of the entity after the change (nil for deletes).
type Event struct {
	BaseEvent
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
	Data     any        `json:"data,omitempty"`
}

// Events is the ordered list of facts produced by one command
type Events []Event

// Types returns the event types in order
func (es Events) Types() []string {
	types := make([]string, len(es))
	for i, e := range es {
		types[i] = e.EventType
	}
	return types
}

// Has reports whether an event of the given type is present
func (es Events) Has(eventType string) bool {
	for _, e := range es {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

// Filter returns the events of the given type
func (es Events) Filter(eventType string) Events {
	var out Events
	for _, e := range es {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// AlertsChange is the payload of ALERTS_CHANGED
type AlertsChange struct {
	Raised  []InventoryAlert `json:"raised,omitempty"`
	Cleared []string         `json:"cleared,omitempty"`
	Current []InventoryAlert `json:"current"`
}

// OrderStatusChange is the payload of ORDER_STATUS_CHANGED and ORDER_FULFILLED
type OrderStatusChange struct {
	Order Order       `json:"order"`
	From  OrderStatus `json:"from"`
	To    OrderStatus `json:"to"`
}

// CollectionReplaced is the payload of COLLECTION_REPLACED
type CollectionReplaced struct {
	Count int `json:"count"`
	// Records is the replacing slice, for in-process sinks only
	Records any `json:"-"`
}

// OrderPlacedEvent is published by the storefront when a customer checks out
type OrderPlacedEvent struct {
	BaseEvent
	UserID          string          `json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
}

// UserActivityEvent is published by the storefront for customer actions
type UserActivityEvent struct {
	BaseEvent
	UserID   string         `json:"user_id"`
	Username string         `json:"username"`
	Action   ActivityAction `json:"action"`
	Details  string         `json:"details"`
}

// DecodeBase reads just the envelope of a raw event
func DecodeBase(raw []byte) (BaseEvent, error) {
	var base BaseEvent
	err := json.Unmarshal(raw, &base)
	return base, err
}
