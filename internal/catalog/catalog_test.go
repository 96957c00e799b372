package catalog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"catalog-admin/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	t time.Time
}

// Now advances one second per call so every mutation gets a distinct timestamp
func (f *fakeClock) Now() time.Time {
	f.t = f.t.Add(time.Second)
	return f.t
}

func newTestCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	n := 0
	base := []Option{
		WithClock(clock.Now),
		WithLogger(zap.NewNop()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	return New(append(base, opts...)...)
}

type fixture struct {
	category models.Category
	brand    models.Brand
}

func seedTaxonomy(t *testing.T, c *Catalog) fixture {
	t.Helper()
	cat, _, err := c.AddCategory(CategoryInput{Name: "Electronics"})
	require.NoError(t, err)
	brand, _, err := c.AddBrand(BrandInput{Name: "Acme"})
	require.NoError(t, err)
	return fixture{category: cat, brand: brand}
}

func addProduct(t *testing.T, c *Catalog, f fixture, name string, inventory int) models.Product {
	t.Helper()
	p, _, err := c.AddProduct(ProductInput{
		Name:       name,
		Price:      decimal.NewFromInt(100),
		Inventory:  inventory,
		CategoryID: f.category.ID,
		BrandID:    f.brand.ID,
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T {
	return &v
}

func TestAddProduct(t *testing.T) {
	t.Run("round trip keeps every field", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		sub, _, err := c.AddSubcategory(SubcategoryInput{Name: "Phones", CategoryID: f.category.ID})
		require.NoError(t, err)

		in := ProductInput{
			Name:           "Phone X",
			Description:    "A phone",
			Price:          decimal.RequireFromString("499.99"),
			Image:          "phone.png",
			Inventory:      12,
			CategoryID:     f.category.ID,
			SubcategoryID:  sub.ID,
			BrandID:        f.brand.ID,
			Specifications: map[string]string{"ram": "8GB"},
		}
		created, events, err := c.AddProduct(in)
		require.NoError(t, err)
		assert.Equal(t, []string{models.EventTypeProductCreated}, events.Types())

		got, err := c.Product(created.ID)
		require.NoError(t, err)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.Description, got.Description)
		assert.True(t, in.Price.Equal(got.Price))
		assert.Equal(t, in.Image, got.Image)
		assert.Equal(t, in.Inventory, got.Inventory)
		assert.Equal(t, in.CategoryID, got.CategoryID)
		assert.Equal(t, in.SubcategoryID, got.SubcategoryID)
		assert.Equal(t, in.BrandID, got.BrandID)
		assert.Equal(t, in.Specifications, got.Specifications)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	})

	t.Run("caller cannot mutate stored specifications", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		specs := map[string]string{"color": "red"}
		p, _, err := c.AddProduct(ProductInput{
			Name: "Shirt", Price: decimal.NewFromInt(10), Inventory: 10,
			CategoryID: f.category.ID, BrandID: f.brand.ID, Specifications: specs,
		})
		require.NoError(t, err)

		specs["color"] = "blue"
		got, err := c.Product(p.ID)
		require.NoError(t, err)
		assert.Equal(t, "red", got.Specifications["color"])
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		_, _, err := c.AddProduct(ProductInput{
			Price: decimal.Zero, Inventory: -1, CategoryID: f.category.ID, BrandID: f.brand.ID,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		fields := map[string]bool{}
		for _, fe := range verr.Fields {
			fields[fe.Field] = true
		}
		assert.True(t, fields["name"])
		assert.True(t, fields["inventory"])
		assert.True(t, fields["price"])
		assert.Empty(t, c.Products())
	})

	t.Run("rejects unknown references", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		_, _, err := c.AddProduct(ProductInput{
			Name: "Ghost", Price: decimal.NewFromInt(1), CategoryID: "missing", BrandID: f.brand.ID,
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "category_id")
	})

	t.Run("rejects subcategory of another category", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		other, _, err := c.AddCategory(CategoryInput{Name: "Garden"})
		require.NoError(t, err)
		sub, _, err := c.AddSubcategory(SubcategoryInput{Name: "Tools", CategoryID: other.ID})
		require.NoError(t, err)

		_, _, err = c.AddProduct(ProductInput{
			Name: "Phone", Price: decimal.NewFromInt(1), Inventory: 10,
			CategoryID: f.category.ID, SubcategoryID: sub.ID, BrandID: f.brand.ID,
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "different category")
	})
}

func TestUpdateProduct(t *testing.T) {
	t.Run("merges fields and advances updatedAt", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Laptop", 20)

		updated, events, err := c.UpdateProduct(p.ID, ProductPatch{Name: ptr("Laptop Pro")})
		require.NoError(t, err)
		assert.Equal(t, "Laptop Pro", updated.Name)
		assert.Equal(t, 20, updated.Inventory)
		assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
		assert.Equal(t, p.CreatedAt, updated.CreatedAt)
		assert.Equal(t, []string{models.EventTypeProductUpdated}, events.Types())
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		c := newTestCatalog(t)
		_, _, err := c.UpdateProduct("nope", ProductPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects negative inventory and keeps state", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Laptop", 20)

		_, _, err := c.UpdateProduct(p.ID, ProductPatch{Inventory: ptr(-3)})
		assert.ErrorIs(t, err, ErrValidation)

		got, err := c.Product(p.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Inventory)
	})

	t.Run("lowering inventory raises an alert", func(t *testing.T) {
		c := newTestCatalog(t)
		f := seedTaxonomy(t, c)
		p := addProduct(t, c, f, "Laptop", 20)

		_, events, err := c.UpdateProduct(p.ID, ProductPatch{Inventory: ptr(2)})
		require.NoError(t, err)
		assert.Equal(t, []string{models.EventTypeProductUpdated, models.EventTypeAlertsChanged}, events.Types())
		require.Len(t, c.Alerts(), 1)
	})
}

func TestDeleteProduct(t *testing.T) {
	c := newTestCatalog(t)
	f := seedTaxonomy(t, c)
	p := addProduct(t, c, f, "Mouse", 1)
	require.Len(t, c.Alerts(), 1)

	events, err := c.DeleteProduct(p.ID)
	require.NoError(t, err)
	assert.True(t, events.Has(models.EventTypeProductDeleted))
	assert.True(t, events.Has(models.EventTypeAlertsChanged))
	assert.Empty(t, c.Alerts())

	_, err = c.Product(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.DeleteProduct(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindProducts(t *testing.T) {
	c := newTestCatalog(t)
	f := seedTaxonomy(t, c)
	other, _, err := c.AddBrand(BrandInput{Name: "Other"})
	require.NoError(t, err)

	addProduct(t, c, f, "A", 50)
	addProduct(t, c, f, "B", 2)
	_, _, err = c.AddProduct(ProductInput{
		Name: "C", Price: decimal.NewFromInt(5), Inventory: 7, CategoryID: f.category.ID, BrandID: other.ID,
	})
	require.NoError(t, err)

	assert.Len(t, c.FindProducts(ProductFilter{}), 3)
	assert.Len(t, c.FindProducts(ProductFilter{BrandID: other.ID}), 1)

	low := c.FindProducts(ProductFilter{LowStockOnly: true})
	require.Len(t, low, 1)
	assert.Equal(t, "B", low[0].Name)
}

func TestStats(t *testing.T) {
	c := newTestCatalog(t)
	f := seedTaxonomy(t, c)
	p := addProduct(t, c, f, "Lamp", 3)
	addProduct(t, c, f, "Desk", 30)
	_, _, err := c.AddUser(UserInput{Username: "jo", Email: "jo@example.com"})
	require.NoError(t, err)

	o1, _, err := c.AddOrder(OrderInput{
		UserID: "u1", CustomerName: "Jo", CustomerEmail: "jo@example.com",
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, _, err = c.AddOrder(OrderInput{
		UserID: "u1", CustomerName: "Jo", CustomerEmail: "jo@example.com",
		Items: []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, _, err = c.UpdateOrderStatus(o1.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.True(t, decimal.NewFromInt(300).Equal(stats.TotalRevenue))
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 1, stats.LowStockProducts)
	assert.Equal(t, 1, stats.TotalCategories)
	assert.Equal(t, 1, stats.TotalBrands)
	assert.Equal(t, 1, stats.TotalUsers)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, ErrorCode(notFound(models.EntityProduct, "x")))
	assert.Equal(t, CodeValidation, ErrorCode(invalidField("name", "is required")))
	assert.Equal(t, CodeDependencyExists, ErrorCode(&DependencyError{}))
	assert.Equal(t, CodeInsufficientInventory, ErrorCode(&InsufficientInventoryError{}))
	assert.Equal(t, CodeInvalidTransition, ErrorCode(invalidTransition("o", models.OrderStatusShipped, models.OrderStatusPending)))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
	assert.Equal(t, CodeNotFound, ErrorCode(fmt.Errorf("wrapped: %w", notFound(models.EntityUser, "u"))))
}
