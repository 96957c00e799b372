package catalog

import (
	"catalog-admin/internal/models"

	"github.com/shopspring/decimal"
)

// Stats summarises the catalog for the dashboard
func (c *Catalog) Stats() models.DashboardStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.DashboardStats{
		TotalProducts:   c.products.len(),
		TotalOrders:     c.orders.len(),
		TotalRevenue:    decimal.Zero,
		TotalCategories: c.categories.len(),
		TotalBrands:     c.brands.len(),
		TotalUsers:      c.users.len(),
	}
	c.orders.each(func(o *models.Order) {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		if o.Status == models.OrderStatusPending || o.Status == models.OrderStatusProcessing {
			stats.PendingOrders++
		}
	})
	stats.LowStockProducts = c.products.count(func(p *models.Product) bool { return p.Inventory <= c.threshold })
	return stats
}
