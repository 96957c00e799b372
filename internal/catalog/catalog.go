package catalog

import (
	"slices"
	"sync"
	"time"

	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the inventory level at or below which a product is alerted
const DefaultLowStockThreshold = 5

// Catalog is the authoritative in-memory model of the admin dashboard.
// Commands mutate state, run derived side effects inline and return the
// resulting events; queries return copies.
type Catalog struct {
	mu sync.RWMutex

	products      *collection[models.Product]
	categories    *collection[models.Category]
	subcategories *collection[models.Subcategory]
	brands        *collection[models.Brand]
	orders        *collection[models.Order]
	users         *collection[models.User]
	activity      *collection[models.ActivityLog]

	alerts    []models.InventoryAlert
	dismissed map[string]int // productID -> inventory at dismissal

	threshold int
	clock     func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(c *Catalog) { c.clock = clock }
}

// WithIDGenerator overrides entity id generation
func WithIDGenerator(gen func() string) Option {
	return func(c *Catalog) { c.newID = gen }
}

// WithThreshold sets the low-stock threshold
func WithThreshold(threshold int) Option {
	return func(c *Catalog) {
		if threshold >= 0 {
			c.threshold = threshold
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// New creates an empty catalog
func New(opts ...Option) *Catalog {
	c := &Catalog{
		products:      newCollection[models.Product](),
		categories:    newCollection[models.Category](),
		subcategories: newCollection[models.Subcategory](),
		brands:        newCollection[models.Brand](),
		orders:        newCollection[models.Order](),
		users:         newCollection[models.User](),
		activity:      newCollection[models.ActivityLog](),
		dismissed:     make(map[string]int),
		threshold:     DefaultLowStockThreshold,
		clock:         time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = util.GetLogger()
	}
	return c
}

// Threshold returns the low-stock threshold in effect
func (c *Catalog) Threshold() int {
	return c.threshold
}

func (c *Catalog) now() time.Time {
	return c.clock().UTC()
}

func (c *Catalog) event(eventType string, entity models.EntityType, id string, data any, at time.Time) models.Event {
	return models.Event{
		BaseEvent: models.NewBaseEvent(eventType, at),
		Entity:    entity,
		EntityID:  id,
		Data:      data,
	}
}

// collection keeps records in insertion order with id lookup
type collection[T any] struct {
	order []string
	items map[string]*T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]*T)}
}

func (c *collection[T]) get(id string) (*T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) add(id string, v *T) {
	c.order = append(c.order, id)
	c.items[id] = v
}

func (c *collection[T]) prepend(id string, v *T) {
	c.order = slices.Insert(c.order, 0, id)
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return true
}

// removeWhere drops every record matching fn and returns how many were removed
func (c *collection[T]) removeWhere(fn func(*T) bool) int {
	removed := 0
	c.order = slices.DeleteFunc(c.order, func(id string) bool {
		if fn(c.items[id]) {
			delete(c.items, id)
			removed++
			return true
		}
		return false
	})
	return removed
}

func (c *collection[T]) each(fn func(*T)) {
	for _, id := range c.order {
		fn(c.items[id])
	}
}

func (c *collection[T]) count(fn func(*T) bool) int {
	n := 0
	for _, id := range c.order {
		if fn(c.items[id]) {
			n++
		}
	}
	return n
}

func (c *collection[T]) len() int {
	return len(c.order)
}

func (c *collection[T]) reset() {
	c.order = nil
	c.items = make(map[string]*T)
}
