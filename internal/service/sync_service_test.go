package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLoader struct {
	snap *store.Snapshot
	err  error
}

func (l stubLoader) LoadSnapshot(context.Context) (*store.Snapshot, error) {
	return l.snap, l.err
}

type stubMirror struct {
	products []models.Product
	alerts   []models.InventoryAlert
	err      error
}

func (m *stubMirror) MirrorInventory(_ context.Context, products []models.Product) error {
	m.products = products
	return m.err
}

func (m *stubMirror) ReplaceAlerts(_ context.Context, alerts []models.InventoryAlert) error {
	m.alerts = alerts
	return nil
}

type stubIndex struct {
	indexed int
	err     error
}

func (i *stubIndex) Reindex(_ context.Context, products []models.Product) error {
	i.indexed = len(products)
	return i.err
}

func testSnapshot() *store.Snapshot {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &store.Snapshot{
		Categories:    []models.Category{{ID: "c1", Name: "Electronics", CreatedAt: at}},
		Subcategories: []models.Subcategory{{ID: "s1", Name: "Phones", CategoryID: "c1", CreatedAt: at}},
		Brands:        []models.Brand{{ID: "b1", Name: "Acme", CreatedAt: at}},
		Products: []models.Product{
			{ID: "p1", Name: "Phone", Price: decimal.NewFromInt(300), Inventory: 2, CategoryID: "c1", SubcategoryID: "s1", BrandID: "b1"},
			{ID: "p2", Name: "Case", Price: decimal.NewFromInt(9), Inventory: 80, CategoryID: "c1", BrandID: "b1"},
		},
		Orders: []models.Order{{ID: "o1", UserID: "u1", Status: models.OrderStatusPending,
			Items: []models.OrderItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(300)}}}},
		Users:        []models.User{{ID: "u1", Username: "jo", Email: "jo@example.com"}},
		ActivityLogs: []models.ActivityLog{{ID: "a1", UserID: "u1", Action: models.ActionLogin, Timestamp: at}},
	}
}

func newSyncFixture(loader SnapshotLoader, mirror InventoryMirror, index ProductIndex) (*SyncService, *catalog.Catalog) {
	c := catalog.New(catalog.WithLogger(zap.NewNop()))
	s := NewSyncService(c, loader, mirror, index)
	s.logger = zap.NewNop()
	return s, c
}

func TestHydrate(t *testing.T) {
	t.Run("loads every collection and rebuilds caches", func(t *testing.T) {
		mirror := &stubMirror{}
		index := &stubIndex{}
		s, c := newSyncFixture(stubLoader{snap: testSnapshot()}, mirror, index)

		require.NoError(t, s.Hydrate(context.Background()))

		assert.Len(t, c.Categories(), 1)
		assert.Len(t, c.Subcategories(""), 1)
		assert.Len(t, c.Brands(), 1)
		assert.Len(t, c.Products(), 2)
		assert.Len(t, c.Orders(""), 1)
		assert.Len(t, c.Users(), 1)
		assert.Len(t, c.ActivityLogs(""), 1)

		assert.Len(t, mirror.products, 2)
		require.Len(t, mirror.alerts, 1)
		assert.Equal(t, "p1", mirror.alerts[0].ProductID)
		assert.Equal(t, 2, index.indexed)

		// the hydrated guard sees the loaded references
		assert.False(t, c.CanDeleteCategory("c1"))
	})

	t.Run("runs without optional collaborators", func(t *testing.T) {
		s, c := newSyncFixture(stubLoader{snap: testSnapshot()}, nil, nil)
		require.NoError(t, s.Hydrate(context.Background()))
		assert.Len(t, c.Alerts(), 1)
	})

	t.Run("load failure leaves the catalog empty", func(t *testing.T) {
		s, c := newSyncFixture(stubLoader{err: errors.New("connection refused")}, nil, nil)

		err := s.Hydrate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load snapshot")
		assert.Empty(t, c.Products())
	})

	t.Run("mirror failure is returned", func(t *testing.T) {
		s, _ := newSyncFixture(stubLoader{snap: testSnapshot()}, &stubMirror{err: errors.New("READONLY")}, nil)

		err := s.Hydrate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mirror inventory")
	})

	t.Run("index failure is tolerated", func(t *testing.T) {
		s, c := newSyncFixture(stubLoader{snap: testSnapshot()}, nil, &stubIndex{err: errors.New("cluster red")})
		require.NoError(t, s.Hydrate(context.Background()))
		assert.Len(t, c.Products(), 2)
	})
}
