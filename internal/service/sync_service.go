package service

import (
	"context"
	"fmt"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SnapshotLoader reads the persisted catalog
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*store.Snapshot, error)
}

// InventoryMirror keeps a cache of stock levels and alerts
type InventoryMirror interface {
	MirrorInventory(ctx context.Context, products []models.Product) error
	ReplaceAlerts(ctx context.Context, alerts []models.InventoryAlert) error
}

// ProductIndex is a full-text index of products
type ProductIndex interface {
	Reindex(ctx context.Context, products []models.Product) error
}

// SyncService hydrates the catalog from persistence at startup
type SyncService struct {
	catalog *catalog.Catalog
	loader  SnapshotLoader
	mirror  InventoryMirror
	index   ProductIndex
	logger  *zap.Logger
}

// NewSyncService creates a new sync service. mirror and index may be nil.
func NewSyncService(c *catalog.Catalog, loader SnapshotLoader, mirror InventoryMirror, index ProductIndex) *SyncService {
	return &SyncService{
		catalog: c,
		loader:  loader,
		mirror:  mirror,
		index:   index,
		logger:  util.GetLogger(),
	}
}

// Hydrate replaces every collection with the persisted snapshot. The
// replacement events are not dispatched: persistence already holds this
// state. The inventory mirror and the search index are rebuilt concurrently
// from the result.
func (s *SyncService) Hydrate(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "SyncService.Hydrate")
	defer span.End()

	snap, err := s.loader.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	collections := []struct {
		entity  models.EntityType
		records any
	}{
		{models.EntityCategory, snap.Categories},
		{models.EntitySubcategory, snap.Subcategories},
		{models.EntityBrand, snap.Brands},
		{models.EntityProduct, snap.Products},
		{models.EntityOrder, snap.Orders},
		{models.EntityUser, snap.Users},
		{models.EntityActivityLog, snap.ActivityLogs},
	}
	for _, col := range collections {
		if _, err := s.catalog.ReplaceCollection(col.entity, col.records); err != nil {
			return fmt.Errorf("failed to hydrate %s: %w", col.entity, err)
		}
	}

	products := s.catalog.Products()
	alerts := s.catalog.Alerts()
	util.ActiveAlerts.Set(float64(len(alerts)))

	g, gctx := errgroup.WithContext(ctx)
	if s.mirror != nil {
		g.Go(func() error {
			if err := s.mirror.MirrorInventory(gctx, products); err != nil {
				return fmt.Errorf("failed to mirror inventory: %w", err)
			}
			if err := s.mirror.ReplaceAlerts(gctx, alerts); err != nil {
				return fmt.Errorf("failed to mirror alerts: %w", err)
			}
			return nil
		})
	}
	if s.index != nil {
		g.Go(func() error {
			if err := s.index.Reindex(gctx, products); err != nil {
				// search is optional
				s.logger.Error("Failed to reindex products", zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("Catalog hydrated",
		zap.Int("products", len(products)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("users", len(snap.Users)),
		zap.Int("alerts", len(alerts)))
	return nil
}
