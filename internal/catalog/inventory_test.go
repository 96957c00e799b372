package catalog

import (
	"math/rand"
	"testing"

	"catalog-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryAlerts(t *testing.T) {
	t.Run("low stock raises and restock clears", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 20)
		assert.Empty(t, c.Alerts())

		_, events, err := c.UpdateInventory(p.ID, 3)
		require.NoError(t, err)
		require.True(t, events.Has(models.EventTypeAlertsChanged))

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, p.ID, alerts[0].ProductID)
		assert.Equal(t, "Cable", alerts[0].ProductName)
		assert.Equal(t, 3, alerts[0].Inventory)
		assert.Equal(t, 5, alerts[0].Threshold)

		_, events, err = c.UpdateInventory(p.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, c.Alerts())

		change := events[len(events)-1].Data.(models.AlertsChange)
		assert.Equal(t, []string{p.ID}, change.Cleared)
		assert.Empty(t, change.Current)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		addProduct(t, c, f, "At", 5)
		addProduct(t, c, f, "Above", 6)

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "At", alerts[0].ProductName)
	})

	t.Run("custom threshold", func(t *testing.T) {
		c := newTestCatalog(t, WithThreshold(10))
		f := seedTaxonomy(t, c)
		addProduct(t, c, f, "Widget", 8)

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, 10, alerts[0].Threshold)
	})

	t.Run("carried alert refreshes inventory and keeps createdAt", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 4)
		first := c.Alerts()[0]

		_, events, err := c.UpdateInventory(p.ID, 2)
		require.NoError(t, err)
		assert.True(t, events.Has(models.EventTypeAlertsChanged))

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, 2, alerts[0].Inventory)
		assert.Equal(t, first.CreatedAt, alerts[0].CreatedAt)
	})

	t.Run("new alerts append after carried ones", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		a := addProduct(t, c, f, "A", 50)
		b := addProduct(t, c, f, "B", 1)

		_, _, err := c.UpdateInventory(a.ID, 0)
		require.NoError(t, err)

		alerts := c.Alerts()
		require.Len(t, alerts, 2)
		assert.Equal(t, b.ID, alerts[0].ProductID)
		assert.Equal(t, a.ID, alerts[1].ProductID)
	})

	t.Run("unrelated update leaves alerts alone", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		addProduct(t, c, f, "Low", 1)
		high := addProduct(t, c, f, "High", 40)

		_, events, err := c.UpdateInventory(high.ID, 30)
		require.NoError(t, err)
		assert.False(t, events.Has(models.EventTypeAlertsChanged))
		assert.Len(t, c.Alerts(), 1)
	})
}

func TestUpdateInventory(t *testing.T) {
	t.Run("negative is rejected", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 20)

		_, events, err := c.UpdateInventory(p.ID, -1)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, events)

		got, err := c.Product(p.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Inventory)
	})

	t.Run("unknown product", func(t *testing.T) {
		c := newTestCatalog(t)
		_, _, err := c.UpdateInventory("missing", 3)
		assert.ErrorIs(t, err, ErrNotFound)

		_, _, err = c.AdjustInventory("missing", 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("adjust clamps at zero", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 4)

		got, _, err := c.AdjustInventory(p.ID, -100)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Inventory)

		got, _, err = c.AdjustInventory(p.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Inventory)
	})

	t.Run("inventory never goes negative", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		products := []models.Product{
			addProduct(t, c, f, "A", 3),
			addProduct(t, c, f, "B", 10),
			addProduct(t, c, f, "C", 0),
		}

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 500; i++ {
			p := products[rng.Intn(len(products))]
			switch rng.Intn(3) {
			case 0:
				_, _, err := c.AdjustInventory(p.ID, rng.Intn(21)-10)
				require.NoError(t, err)
			case 1:
				_, _, _ = c.UpdateInventory(p.ID, rng.Intn(21)-10)
			case 2:
				inv := rng.Intn(21) - 10
				_, _, _ = c.UpdateProduct(p.ID, ProductPatch{Inventory: &inv})
			}
			for _, got := range c.Products() {
				require.GreaterOrEqual(t, got.Inventory, 0)
			}
			for _, a := range c.Alerts() {
				require.LessOrEqual(t, a.Inventory, c.Threshold())
			}
		}
	})
}

func TestDismissAlert(t *testing.T) {
	t.Run("dismiss removes alert and is idempotent", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 2)
		require.Len(t, c.Alerts(), 1)

		events, err := c.DismissAlert(p.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		change := events[0].Data.(models.AlertsChange)
		assert.Equal(t, []string{p.ID}, change.Cleared)
		assert.Empty(t, c.Alerts())

		events, err = c.DismissAlert(p.ID)
		require.NoError(t, err)
		assert.Nil(t, events)
		assert.Empty(t, c.Alerts())
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		c := newTestCatalog(t)
		events, err := c.DismissAlert("missing")
		assert.NoError(t, err)
		assert.Nil(t, events)
	})

	t.Run("stays dismissed until inventory changes", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 2)
		other := addProduct(t, c, f, "Other", 30)

		_, err := c.DismissAlert(p.ID)
		require.NoError(t, err)

		_, _, err = c.UpdateInventory(other.ID, 3)
		require.NoError(t, err)
		_, _, err = c.UpdateProduct(p.ID, ProductPatch{Name: ptr("Cable 2m")})
		require.NoError(t, err)
		_, _, err = c.UpdateInventory(p.ID, 2)
		require.NoError(t, err)

		alerts := c.Alerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, other.ID, alerts[0].ProductID)

		_, _, err = c.UpdateInventory(p.ID, 1)
		require.NoError(t, err)
		alerts = c.Alerts()
		require.Len(t, alerts, 2)
		assert.Equal(t, p.ID, alerts[1].ProductID)
		assert.Equal(t, 1, alerts[1].Inventory)
	})

	t.Run("restock above threshold ends the dismissal", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Cable", 2)

		_, err := c.DismissAlert(p.ID)
		require.NoError(t, err)
		_, _, err = c.UpdateInventory(p.ID, 50)
		require.NoError(t, err)
		_, _, err = c.UpdateInventory(p.ID, 2)
		require.NoError(t, err)

		assert.Len(t, c.Alerts(), 1)
	})
}
