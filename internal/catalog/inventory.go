package catalog

import (
	"time"

	"catalog-admin/internal/models"

	"go.uber.org/zap"
)

// UpdateInventory sets the absolute stock level of a product
func (c *Catalog) UpdateInventory(productID string, quantity int) (models.Product, models.Events, error) {
	if quantity < 0 {
		return models.Product{}, nil, invalidField("inventory", "must be at least 0")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setInventory(productID, quantity)
}

// AdjustInventory changes the stock level by delta, clamping at zero
func (c *Catalog) AdjustInventory(productID string, delta int) (models.Product, models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products.get(productID)
	if !ok {
		return models.Product{}, nil, notFound(models.EntityProduct, productID)
	}
	return c.setInventory(productID, max(0, p.Inventory+delta))
}

func (c *Catalog) setInventory(productID string, quantity int) (models.Product, models.Events, error) {
	p, ok := c.products.get(productID)
	if !ok {
		return models.Product{}, nil, notFound(models.EntityProduct, productID)
	}

	now := c.now()
	p.Inventory = quantity
	p.UpdatedAt = now

	events := models.Events{c.event(models.EventTypeProductUpdated, models.EntityProduct, productID, p.Clone(), now)}
	events = c.appendAlertEvents(events, now)
	return p.Clone(), events, nil
}

// DismissAlert hides the alert of a product until its inventory changes.
// Dismissing a product without an alert does nothing.
func (c *Catalog) DismissAlert(productID string) (models.Events, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, a := range c.alerts {
		if a.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	level := c.alerts[idx].Inventory
	if p, ok := c.products.get(productID); ok {
		level = p.Inventory
	}
	c.dismissed[productID] = level
	c.alerts = append(c.alerts[:idx:idx], c.alerts[idx+1:]...)

	now := c.now()
	change := models.AlertsChange{Cleared: []string{productID}, Current: c.alertsCopy()}
	return models.Events{c.event(models.EventTypeAlertsChanged, models.EntityAlert, productID, change, now)}, nil
}

// Alerts lists the active low-stock alerts
func (c *Catalog) Alerts() []models.InventoryAlert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alertsCopy()
}

func (c *Catalog) alertsCopy() []models.InventoryAlert {
	return append([]models.InventoryAlert{}, c.alerts...)
}

// appendAlertEvents re-derives alerts and appends ALERTS_CHANGED when the set moved
func (c *Catalog) appendAlertEvents(events models.Events, now time.Time) models.Events {
	change, changed := c.recomputeAlerts(now)
	if !changed {
		return events
	}
	return append(events, c.event(models.EventTypeAlertsChanged, models.EntityAlert, "", change, now))
}

// recomputeAlerts brings the alert set in line with current inventory levels.
// Carried-over alerts keep their position and createdAt and refresh their
// inventory snapshot; new alerts are appended in product order.
func (c *Catalog) recomputeAlerts(now time.Time) (models.AlertsChange, bool) {
	// A dismissal lasts until the product's inventory differs from the dismissed level
	for id, level := range c.dismissed {
		if p, ok := c.products.get(id); !ok || p.Inventory != level {
			delete(c.dismissed, id)
		}
	}

	var change models.AlertsChange
	changed := false

	kept := make([]models.InventoryAlert, 0, len(c.alerts))
	alerted := make(map[string]bool, len(c.alerts))
	for _, a := range c.alerts {
		if alerted[a.ProductID] {
			changed = true
			continue
		}
		p, ok := c.products.get(a.ProductID)
		if !ok || p.Inventory > c.threshold {
			change.Cleared = append(change.Cleared, a.ProductID)
			continue
		}
		if a.Inventory != p.Inventory {
			a.Inventory = p.Inventory
			changed = true
		}
		kept = append(kept, a)
		alerted[a.ProductID] = true
	}

	c.products.each(func(p *models.Product) {
		if p.Inventory > c.threshold || alerted[p.ID] {
			return
		}
		if _, suppressed := c.dismissed[p.ID]; suppressed {
			return
		}
		alert := models.InventoryAlert{
			ProductID:   p.ID,
			ProductName: p.Name,
			Inventory:   p.Inventory,
			Threshold:   c.threshold,
			CreatedAt:   now,
		}
		change.Raised = append(change.Raised, alert)
		kept = append(kept, alert)
	})

	if len(change.Raised) > 0 || len(change.Cleared) > 0 {
		changed = true
		c.logger.Debug("Inventory alerts recomputed",
			zap.Int("raised", len(change.Raised)),
			zap.Int("cleared", len(change.Cleared)),
			zap.Int("active", len(kept)))
	}

	c.alerts = kept
	change.Current = c.alertsCopy()
	return change, changed
}
