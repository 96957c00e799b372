package catalog

import (
	"testing"
	"time"

	"catalog-admin/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceCollection(t *testing.T) {
	t.Run("products skip reference checks and derive alerts", func(t *testing.T) {
		c := newTestCatalog(t)
		records := []models.Product{
			{ID: "p1", Name: "Low", Price: decimal.NewFromInt(5), Inventory: 1, CategoryID: "c-unknown", BrandID: "b-unknown"},
			{ID: "p2", Name: "High", Price: decimal.NewFromInt(5), Inventory: 40, CategoryID: "c-unknown", BrandID: "b-unknown"},
		}

		events, err := c.ReplaceCollection(models.EntityProduct, records)
		require.NoError(t, err)
		assert.Equal(t, []string{models.EventTypeCollectionReplaced, models.EventTypeAlertsChanged}, events.Types())
		replaced := events[0].Data.(models.CollectionReplaced)
		assert.Equal(t, 2, replaced.Count)

		assert.Len(t, c.Products(), 2)
		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "p1", alerts[0].ProductID)
	})

	t.Run("replaces rather than merges", func(t *testing.T) {
		c := newTestCatalog(t)
		seedTaxonomy(t, c)

		_, err := c.ReplaceCollection(models.EntityCategory, []models.Category{{ID: "c1", Name: "Books"}})
		require.NoError(t, err)

		cats := c.Categories()
		require.Len(t, cats, 1)
		assert.Equal(t, "Books", cats[0].Name)
	})

	t.Run("rejects wrong record type", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection(models.EntityBrand, []models.Category{{ID: "c1"}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects missing and duplicate ids", func(t *testing.T) {
		c := newTestCatalog(t)
		brand, _, err := c.AddBrand(BrandInput{Name: "Keep"})
		require.NoError(t, err)

		_, err = c.ReplaceCollection(models.EntityBrand, []models.Brand{{ID: "b1"}, {ID: "b1"}, {}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 2)

		brands := c.Brands()
		require.Len(t, brands, 1)
		assert.Equal(t, brand.ID, brands[0].ID)
	})

	t.Run("products must satisfy field rules", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		kept := addProduct(t, c, f, "Keep", 7)

		_, err := c.ReplaceCollection(models.EntityProduct, []models.Product{
			{ID: "p1", Name: "Ok", Price: decimal.NewFromInt(5), Inventory: 1},
			{ID: "p2", Name: "Negative", Price: decimal.Zero, Inventory: -4},
			{ID: "p3", Price: decimal.NewFromInt(5)},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		fields := make([]string, 0, len(verr.Fields))
		for _, fe := range verr.Fields {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"records[1].price", "records[1].inventory", "records[2].name"}, fields)

		products := c.Products()
		require.Len(t, products, 1)
		assert.Equal(t, kept.ID, products[0].ID)
	})

	t.Run("orders must satisfy field rules", func(t *testing.T) {
		c := newTestCatalog(t)
		item := func(qty int) models.OrderItem {
			return models.OrderItem{ProductID: "p1", ProductName: "A", Quantity: qty, Price: decimal.NewFromInt(3)}
		}

		_, err := c.ReplaceCollection(models.EntityOrder, []models.Order{
			{ID: "o1", Status: models.OrderStatusPending, Items: []models.OrderItem{item(2), item(-8)}},
			{ID: "o2", Status: "lost", Items: []models.OrderItem{item(1)}},
			{ID: "o3", Status: models.OrderStatusShipped},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		fields := make([]string, 0, len(verr.Fields))
		for _, fe := range verr.Fields {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"records[0].items[1].quantity", "records[1].status", "records[2].items"}, fields)
		assert.Empty(t, c.Orders(""))
	})

	t.Run("a rejected order cannot restock on fulfillment", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection(models.EntityProduct, []models.Product{
			{ID: "p1", Name: "A", Price: decimal.NewFromInt(3), Inventory: 2},
		})
		require.NoError(t, err)

		_, err = c.ReplaceCollection(models.EntityOrder, []models.Order{{
			ID:     "o1",
			Status: models.OrderStatusPending,
			Items:  []models.OrderItem{{ProductID: "p1", Quantity: -8, Price: decimal.NewFromInt(3)}},
		}})
		require.ErrorIs(t, err, ErrValidation)

		_, _, err = c.FulfillOrder("o1")
		assert.ErrorIs(t, err, ErrNotFound)
		p, err := c.Product("p1")
		require.NoError(t, err)
		assert.Equal(t, 2, p.Inventory)
	})

	t.Run("activity must use a known action", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection(models.EntityActivityLog, []models.ActivityLog{
			{ID: "a1", UserID: "u", Action: models.ActionLogin},
			{ID: "a2", UserID: "u", Action: "teleport"},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "records[1].action", verr.Fields[0].Field)
		assert.Empty(t, c.ActivityLogs(""))
	})

	t.Run("alerts must name each product once", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection(models.EntityProduct, []models.Product{
			{ID: "p1", Name: "Low", Price: decimal.NewFromInt(5), Inventory: 2},
		})
		require.NoError(t, err)
		before := c.Alerts()
		require.Len(t, before, 1)

		at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		_, err = c.ReplaceCollection(models.EntityAlert, []models.InventoryAlert{
			{ProductID: "p1", ProductName: "Low", Inventory: 2, Threshold: 5, CreatedAt: at},
			{ProductID: "p1", ProductName: "Low", Inventory: 2, Threshold: 5, CreatedAt: at},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "records[1].product_id", verr.Fields[0].Field)
		assert.Equal(t, before, c.Alerts())
	})

	t.Run("unknown collection", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection("widgets", nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("activity is ordered newest first", func(t *testing.T) {
		c := newTestCatalog(t)
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		logs := []models.ActivityLog{
			{ID: "a1", UserID: "u", Action: models.ActionLogin, Timestamp: base},
			{ID: "a3", UserID: "u", Action: models.ActionPurchase, Timestamp: base.Add(2 * time.Hour)},
			{ID: "a2", UserID: "u", Action: models.ActionViewProduct, Timestamp: base.Add(time.Hour)},
		}

		_, err := c.ReplaceCollection(models.EntityActivityLog, logs)
		require.NoError(t, err)

		got := c.ActivityLogs("")
		require.Len(t, got, 3)
		assert.Equal(t, "a3", got[0].ID)
		assert.Equal(t, "a2", got[1].ID)
		assert.Equal(t, "a1", got[2].ID)
		assert.Equal(t, "a1", logs[0].ID)
	})

	t.Run("stale alerts are reconciled", func(t *testing.T) {
		c := newTestCatalog(t)
		_, err := c.ReplaceCollection(models.EntityProduct, []models.Product{
			{ID: "p1", Name: "Low", Price: decimal.NewFromInt(5), Inventory: 2},
		})
		require.NoError(t, err)

		at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		_, err = c.ReplaceCollection(models.EntityAlert, []models.InventoryAlert{
			{ProductID: "p1", ProductName: "Low", Inventory: 4, Threshold: 5, CreatedAt: at},
			{ProductID: "ghost", ProductName: "Ghost", Inventory: 0, Threshold: 5, CreatedAt: at},
		})
		require.NoError(t, err)

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "p1", alerts[0].ProductID)
		assert.Equal(t, 2, alerts[0].Inventory)
		assert.Equal(t, at, alerts[0].CreatedAt)
	})
}

func TestDecodeCollection(t *testing.T) {
	raw := []byte(`[{"id":"o1","user_id":"u1","customer_name":"Jo","customer_email":"jo@example.com",
		"items":[{"product_id":"p1","product_name":"A","quantity":2,"price":"4.50"}],
		"total":"9.00","status":"processing","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)

	records, err := DecodeCollection(models.EntityOrder, raw)
	require.NoError(t, err)
	orders, ok := records.([]models.Order)
	require.True(t, ok)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusProcessing, orders[0].Status)
	assert.True(t, decimal.RequireFromString("9").Equal(orders[0].Total))

	c := newTestCatalog(t)
	_, err = c.ReplaceCollection(models.EntityOrder, records)
	require.NoError(t, err)
	assert.Len(t, c.Orders(models.OrderStatusProcessing), 1)

	_, err = DecodeCollection(models.EntityOrder, []byte(`{"not":"an array"}`))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DecodeCollection("widgets", []byte(`[]`))
	assert.ErrorIs(t, err, ErrValidation)
}
