package catalog

import (
	"fmt"
	"strconv"

	"catalog-admin/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddOrder records an order and a purchase activity for its customer.
// Item name and price snapshots default to the product's current values.
func (c *Catalog) AddOrder(in OrderInput) (models.Order, models.Events, error) {
	verr := check(in)
	for i, item := range in.Items {
		if item.Price != nil && item.Price.IsNegative() {
			verr = merge(verr, invalidField("items["+strconv.Itoa(i)+"].price", "must not be negative"))
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		verr = merge(verr, invalidField("status", "must be one of pending, processing, shipped, delivered"))
	}
	if verr != nil {
		return models.Order{}, nil, verr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.OrderItem, len(in.Items))
	total := decimal.Zero
	for i, req := range in.Items {
		item := models.OrderItem{ProductID: req.ProductID, ProductName: req.ProductName, Quantity: req.Quantity}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if p, ok := c.products.get(req.ProductID); ok {
			if item.ProductName == "" {
				item.ProductName = p.Name
			}
			if req.Price == nil {
				item.Price = p.Price
			}
		} else if req.Price == nil {
			verr = merge(verr, invalidField("items["+strconv.Itoa(i)+"].price",
				"is required for a product that is not in the catalog"))
		}
		items[i] = item
		total = total.Add(item.Subtotal())
	}
	if in.Total != nil && !in.Total.IsZero() && !in.Total.Equal(total) {
		verr = merge(verr, invalidField("total", "does not match the sum of the items ("+total.StringFixed(2)+")"))
	}
	if verr != nil {
		return models.Order{}, nil, verr
	}

	status := in.Status
	if status == "" {
		status = models.OrderStatusPending
	}

	now := c.now()
	order := &models.Order{
		ID:              c.newID(),
		UserID:          in.UserID,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		ShippingAddress: in.ShippingAddress,
		Items:           items,
		Total:           total,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.orders.add(order.ID, order)

	events := models.Events{c.event(models.EventTypeOrderCreated, models.EntityOrder, order.ID, order.Clone(), now)}
	purchase := c.appendActivity(in.UserID, in.CustomerName, models.ActionPurchase,
		fmt.Sprintf("Purchased %d items for $%s", len(items), total.StringFixed(2)), now)
	events = append(events, c.event(models.EventTypeActivityLogged, models.EntityActivityLog, purchase.ID, purchase, now))

	return order.Clone(), events, nil
}

// UpdateOrderStatus moves an order forward without touching inventory.
// Setting the current status again is a no-op.
func (c *Catalog) UpdateOrderStatus(id string, status models.OrderStatus) (models.Order, models.Events, error) {
	if !status.Valid() {
		return models.Order{}, nil, invalidField("status", "must be one of pending, processing, shipped, delivered")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders.get(id)
	if !ok {
		return models.Order{}, nil, notFound(models.EntityOrder, id)
	}
	if order.Status == status {
		return order.Clone(), nil, nil
	}
	if status.Rank() < order.Status.Rank() {
		return models.Order{}, nil, invalidTransition(id, order.Status, status)
	}

	from := order.Status
	now := c.now()
	order.Status = status
	order.UpdatedAt = now

	change := models.OrderStatusChange{Order: order.Clone(), From: from, To: status}
	return order.Clone(), models.Events{c.event(models.EventTypeOrderStatusChanged, models.EntityOrder, id, change, now)}, nil
}

// FulfillOrder ships an order and takes its items out of stock.
// Every item is checked before anything changes: one short product rejects
// the whole fulfillment. Items whose product has since been deleted are skipped.
func (c *Catalog) FulfillOrder(id string) (models.Order, models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders.get(id)
	if !ok {
		return models.Order{}, nil, notFound(models.EntityOrder, id)
	}
	if order.Status.Fulfilled() {
		return models.Order{}, nil, invalidTransition(id, order.Status, models.OrderStatusShipped)
	}

	requested := make(map[string]int)
	var productOrder []string
	for _, item := range order.Items {
		if _, ok := c.products.get(item.ProductID); !ok {
			c.logger.Warn("Skipping order item for missing product",
				zap.String("order_id", id),
				zap.String("product_id", item.ProductID))
			continue
		}
		if _, seen := requested[item.ProductID]; !seen {
			productOrder = append(productOrder, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	var shortages []Shortage
	for _, pid := range productOrder {
		p, _ := c.products.get(pid)
		if p.Inventory < requested[pid] {
			shortages = append(shortages, Shortage{
				ProductID:   pid,
				ProductName: p.Name,
				Requested:   requested[pid],
				Available:   p.Inventory,
			})
		}
	}
	if len(shortages) > 0 {
		c.logger.Warn("Fulfillment rejected, insufficient inventory",
			zap.String("order_id", id),
			zap.Int("short_products", len(shortages)))
		return models.Order{}, nil, &InsufficientInventoryError{OrderID: id, Shortages: shortages}
	}

	now := c.now()
	from := order.Status
	order.Status = models.OrderStatusShipped
	order.UpdatedAt = now

	events := models.Events{c.event(models.EventTypeOrderFulfilled, models.EntityOrder, id,
		models.OrderStatusChange{Order: order.Clone(), From: from, To: models.OrderStatusShipped}, now)}
	for _, pid := range productOrder {
		p, _ := c.products.get(pid)
		p.Inventory -= requested[pid]
		p.UpdatedAt = now
		events = append(events, c.event(models.EventTypeProductUpdated, models.EntityProduct, pid, p.Clone(), now))
	}
	events = c.appendAlertEvents(events, now)

	return order.Clone(), events, nil
}

// Order returns an order by id
func (c *Catalog) Order(id string) (models.Order, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, ok := c.orders.get(id)
	if !ok {
		return models.Order{}, notFound(models.EntityOrder, id)
	}
	return order.Clone(), nil
}

// Orders lists orders in creation order, restricted to one status when status is set
func (c *Catalog) Orders(status models.OrderStatus) []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, 0)
	c.orders.each(func(o *models.Order) {
		if status == "" || o.Status == status {
			out = append(out, o.Clone())
		}
	})
	return out
}

// OrdersByUser lists the orders placed by one user
func (c *Catalog) OrdersByUser(userID string) []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, 0)
	c.orders.each(func(o *models.Order) {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	})
	return out
}
