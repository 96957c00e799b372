package redisclient

import (
	"context"
	"fmt"

	"catalog-admin/internal/models"

	"go.uber.org/zap"
)

// Apply mirrors inventory levels and the alert set from catalog events
func (c *Client) Apply(ctx context.Context, events ...models.Event) error {
	for _, e := range events {
		var err error
		switch e.EventType {
		case models.EventTypeProductCreated, models.EventTypeProductUpdated:
			if p, ok := e.Data.(models.Product); ok {
				err = c.SetInventory(ctx, p.ID, p.Inventory)
			}
		case models.EventTypeProductDeleted:
			err = c.DeleteInventory(ctx, e.EntityID)
		case models.EventTypeAlertsChanged:
			if change, ok := e.Data.(models.AlertsChange); ok {
				err = c.ReplaceAlerts(ctx, change.Current)
			}
		case models.EventTypeCollectionReplaced:
			err = c.applyReplace(ctx, e)
		}
		if err != nil {
			return fmt.Errorf("failed to mirror %s %s: %w", e.EventType, e.EntityID, err)
		}
	}
	return nil
}

func (c *Client) applyReplace(ctx context.Context, e models.Event) error {
	replaced, ok := e.Data.(models.CollectionReplaced)
	if !ok {
		return nil
	}
	switch records := replaced.Records.(type) {
	case []models.Product:
		c.logger.Info("Mirroring replaced product inventory", zap.Int("products", len(records)))
		return c.MirrorInventory(ctx, records)
	case []models.InventoryAlert:
		return c.ReplaceAlerts(ctx, records)
	}
	return nil
}
