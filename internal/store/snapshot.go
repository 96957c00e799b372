package store

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-admin/internal/models"

	"go.uber.org/zap"
)

// Snapshot is the persisted state of every catalog collection
type Snapshot struct {
	Categories    []models.Category
	Subcategories []models.Subcategory
	Brands        []models.Brand
	Products      []models.Product
	Orders        []models.Order
	Users         []models.User
	ActivityLogs  []models.ActivityLog
}

type productRow struct {
	models.Product
	Specs []byte `db:"specifications"`
}

type orderRow struct {
	models.Order
	ItemsJSON []byte `db:"items"`
}

const (
	selectCategories    = `SELECT id, name, created_at, updated_at FROM categories ORDER BY created_at, id`
	selectSubcategories = `SELECT id, name, category_id, created_at, updated_at FROM subcategories ORDER BY created_at, id`
	selectBrands        = `SELECT id, name, created_at, updated_at FROM brands ORDER BY created_at, id`
	selectProducts      = `
		SELECT id, name, description, price, image, inventory, category_id,
		       COALESCE(subcategory_id, '') AS subcategory_id, brand_id, specifications, created_at, updated_at
		FROM products ORDER BY created_at, id`
	selectOrders = `
		SELECT id, user_id, customer_name, customer_email, shipping_address, items, total, status, created_at, updated_at
		FROM orders ORDER BY created_at, id`
	selectUsers        = `SELECT id, username, email, name, created_at, last_login FROM users ORDER BY created_at, id`
	selectActivityLogs = `SELECT id, user_id, username, action, details, logged_at FROM activity_logs ORDER BY logged_at DESC, id`
)

// LoadSnapshot reads every collection
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Categories:    []models.Category{},
		Subcategories: []models.Subcategory{},
		Brands:        []models.Brand{},
		Products:      []models.Product{},
		Orders:        []models.Order{},
		Users:         []models.User{},
		ActivityLogs:  []models.ActivityLog{},
	}

	if err := s.db.SelectContext(ctx, &snap.Categories, selectCategories); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Subcategories, selectSubcategories); err != nil {
		return nil, fmt.Errorf("failed to load subcategories: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Brands, selectBrands); err != nil {
		return nil, fmt.Errorf("failed to load brands: %w", err)
	}

	var products []productRow
	if err := s.db.SelectContext(ctx, &products, selectProducts); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, row := range products {
		p := row.Product
		if len(row.Specs) > 0 {
			if err := json.Unmarshal(row.Specs, &p.Specifications); err != nil {
				return nil, fmt.Errorf("failed to decode specifications of product %s: %w", p.ID, err)
			}
		}
		snap.Products = append(snap.Products, p)
	}

	var orders []orderRow
	if err := s.db.SelectContext(ctx, &orders, selectOrders); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	for _, row := range orders {
		o := row.Order
		if err := json.Unmarshal(row.ItemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of order %s: %w", o.ID, err)
		}
		snap.Orders = append(snap.Orders, o)
	}

	if err := s.db.SelectContext(ctx, &snap.Users, selectUsers); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.ActivityLogs, selectActivityLogs); err != nil {
		return nil, fmt.Errorf("failed to load activity logs: %w", err)
	}

	s.logger.Info("Snapshot loaded",
		zap.Int("products", len(snap.Products)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("users", len(snap.Users)))
	return snap, nil
}
