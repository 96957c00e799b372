package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"catalog-admin/internal/models"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const (
	upsertCategory = `
		INSERT INTO categories (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`
	upsertSubcategory = `
		INSERT INTO subcategories (id, name, category_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category_id = EXCLUDED.category_id, updated_at = EXCLUDED.updated_at`
	upsertBrand = `
		INSERT INTO brands (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`
	upsertProduct = `
		INSERT INTO products (id, name, description, price, image, inventory, category_id, subcategory_id,
		                      brand_id, specifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
			image = EXCLUDED.image, inventory = EXCLUDED.inventory, category_id = EXCLUDED.category_id,
			subcategory_id = EXCLUDED.subcategory_id, brand_id = EXCLUDED.brand_id,
			specifications = EXCLUDED.specifications, updated_at = EXCLUDED.updated_at`
	upsertOrder = `
		INSERT INTO orders (id, user_id, customer_name, customer_email, shipping_address, items, total, status,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	upsertUser = `
		INSERT INTO users (id, username, email, name, created_at, last_login) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email,
			name = EXCLUDED.name, last_login = EXCLUDED.last_login`
	insertActivity = `
		INSERT INTO activity_logs (id, user_id, username, action, details, logged_at) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var tables = map[models.EntityType]string{
	models.EntityProduct:     "products",
	models.EntityCategory:    "categories",
	models.EntitySubcategory: "subcategories",
	models.EntityBrand:       "brands",
	models.EntityOrder:       "orders",
	models.EntityUser:        "users",
	models.EntityActivityLog: "activity_logs",
}

// Apply persists a batch of catalog events in one transaction
func (s *Store) Apply(ctx context.Context, events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		if err := s.applyEvent(ctx, tx, e); err != nil {
			return fmt.Errorf("failed to apply %s %s: %w", e.EventType, e.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

func (s *Store) applyEvent(ctx context.Context, tx execer, e models.Event) error {
	switch e.EventType {
	case models.EventTypeProductCreated, models.EventTypeProductUpdated:
		p, ok := e.Data.(models.Product)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveProduct(ctx, tx, p)

	case models.EventTypeCategoryCreated, models.EventTypeCategoryUpdated:
		c, ok := e.Data.(models.Category)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveCategory(ctx, tx, c)

	case models.EventTypeSubcategoryCreated, models.EventTypeSubcategoryUpdated:
		sub, ok := e.Data.(models.Subcategory)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveSubcategory(ctx, tx, sub)

	case models.EventTypeBrandCreated, models.EventTypeBrandUpdated:
		b, ok := e.Data.(models.Brand)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveBrand(ctx, tx, b)

	case models.EventTypeOrderCreated:
		o, ok := e.Data.(models.Order)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveOrder(ctx, tx, o)

	case models.EventTypeOrderStatusChanged, models.EventTypeOrderFulfilled:
		change, ok := e.Data.(models.OrderStatusChange)
		if !ok {
			return unexpectedPayload(e)
		}
		return run(ctx, tx, psql.Update("orders").
			Set("status", change.To).
			Set("updated_at", change.Order.UpdatedAt).
			Where(squirrel.Eq{"id": change.Order.ID}))

	case models.EventTypeUserCreated, models.EventTypeUserUpdated:
		u, ok := e.Data.(models.User)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveUser(ctx, tx, u)

	case models.EventTypeUserDeleted:
		if err := run(ctx, tx, psql.Delete("activity_logs").Where(squirrel.Eq{"user_id": e.EntityID})); err != nil {
			return err
		}
		return run(ctx, tx, psql.Delete("users").Where(squirrel.Eq{"id": e.EntityID}))

	case models.EventTypeActivityLogged:
		l, ok := e.Data.(models.ActivityLog)
		if !ok {
			return unexpectedPayload(e)
		}
		return saveActivity(ctx, tx, l)

	case models.EventTypeProductDeleted, models.EventTypeCategoryDeleted,
		models.EventTypeSubcategoryDeleted, models.EventTypeBrandDeleted:
		return run(ctx, tx, psql.Delete(tables[e.Entity]).Where(squirrel.Eq{"id": e.EntityID}))

	case models.EventTypeCollectionReplaced:
		return s.replaceTable(ctx, tx, e)

	case models.EventTypeAlertsChanged:
		// alerts are derived state and never persisted
		return nil
	}

	s.logger.Debug("Ignoring event", zap.String("event_type", e.EventType))
	return nil
}

// replaceTable rewrites a whole table after a bulk collection replace
func (s *Store) replaceTable(ctx context.Context, tx execer, e models.Event) error {
	table, ok := tables[e.Entity]
	if !ok {
		return nil
	}
	replaced, ok := e.Data.(models.CollectionReplaced)
	if !ok {
		return unexpectedPayload(e)
	}

	if err := run(ctx, tx, psql.Delete(table)); err != nil {
		return err
	}

	var err error
	switch records := replaced.Records.(type) {
	case []models.Product:
		for _, r := range records {
			if err = saveProduct(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.Category:
		for _, r := range records {
			if err = saveCategory(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.Subcategory:
		for _, r := range records {
			if err = saveSubcategory(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.Brand:
		for _, r := range records {
			if err = saveBrand(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.Order:
		for _, r := range records {
			if err = saveOrder(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.User:
		for _, r := range records {
			if err = saveUser(ctx, tx, r); err != nil {
				break
			}
		}
	case []models.ActivityLog:
		for _, r := range records {
			if err = saveActivity(ctx, tx, r); err != nil {
				break
			}
		}
	default:
		return unexpectedPayload(e)
	}
	if err != nil {
		return err
	}

	s.logger.Info("Table replaced", zap.String("table", table), zap.Int("rows", replaced.Count))
	return nil
}

func saveProduct(ctx context.Context, tx execer, p models.Product) error {
	var specs []byte
	if p.Specifications != nil {
		var err error
		if specs, err = json.Marshal(p.Specifications); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, upsertProduct,
		p.ID, p.Name, p.Description, p.Price, p.Image, p.Inventory, p.CategoryID,
		nullString(p.SubcategoryID), p.BrandID, specs, p.CreatedAt, p.UpdatedAt)
	return err
}

func saveCategory(ctx context.Context, tx execer, c models.Category) error {
	_, err := tx.ExecContext(ctx, upsertCategory, c.ID, c.Name, c.CreatedAt, c.UpdatedAt)
	return err
}

func saveSubcategory(ctx context.Context, tx execer, sub models.Subcategory) error {
	_, err := tx.ExecContext(ctx, upsertSubcategory, sub.ID, sub.Name, sub.CategoryID, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func saveBrand(ctx context.Context, tx execer, b models.Brand) error {
	_, err := tx.ExecContext(ctx, upsertBrand, b.ID, b.Name, b.CreatedAt, b.UpdatedAt)
	return err
}

func saveOrder(ctx context.Context, tx execer, o models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, upsertOrder,
		o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.ShippingAddress, items, o.Total, o.Status,
		o.CreatedAt, o.UpdatedAt)
	return err
}

func saveUser(ctx context.Context, tx execer, u models.User) error {
	_, err := tx.ExecContext(ctx, upsertUser, u.ID, u.Username, u.Email, u.Name, u.CreatedAt, u.LastLogin)
	return err
}

func saveActivity(ctx context.Context, tx execer, l models.ActivityLog) error {
	_, err := tx.ExecContext(ctx, insertActivity, l.ID, l.UserID, l.Username, l.Action, l.Details, l.Timestamp)
	return err
}

// run executes a built statement inside the transaction
func run(ctx context.Context, tx execer, stmt squirrel.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func unexpectedPayload(e models.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", e.Data, e.EventType)
}
