package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

//go:embed scripts/replace_alerts.lua
var replaceAlertsScript string

const alertsKey = "inventory:alerts"

type Client struct {
	rdb           *redis.Client
	replaceAlerts *redis.Script
	threshold     int
	logger        *zap.Logger
}

// NewClient creates a new Redis client with Lua scripts loaded.
// threshold is stored next to each inventory level for storefront readers.
func NewClient(addr, password string, db, threshold int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		replaceAlerts: redis.NewScript(replaceAlertsScript),
		threshold:     threshold,
		logger:        util.GetLogger(),
	}, nil
}

// Name identifies the client as an event sink
func (c *Client) Name() string {
	return "redis"
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func inventoryKey(productID string) string {
	return "inventory:" + productID
}

func idempotencyKey(key string) string {
	return "idempotency:" + key
}

// SetInventory mirrors the stock level of one product
func (c *Client) SetInventory(ctx context.Context, productID string, inventory int) error {
	return c.rdb.HSet(ctx, inventoryKey(productID), "inventory", inventory, "threshold", c.threshold).Err()
}

// MirrorInventory makes the mirrored stock levels match products exactly.
// Hashes of products missing from the list are deleted in the same transaction.
func (c *Client) MirrorInventory(ctx context.Context, products []models.Product) error {
	existing, err := c.inventoryKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list inventory keys: %w", err)
	}
	stale := staleInventoryKeys(existing, products)
	if len(products) == 0 && len(stale) == 0 {
		return nil
	}

	pipe := c.rdb.TxPipeline()
	if len(stale) > 0 {
		pipe.Del(ctx, stale...)
	}
	for _, p := range products {
		pipe.HSet(ctx, inventoryKey(p.ID), "inventory", p.Inventory, "threshold", c.threshold)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if len(stale) > 0 {
		c.logger.Info("Removed stale inventory mirrors", zap.Int("count", len(stale)))
	}
	return nil
}

func (c *Client) inventoryKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, inventoryKey("*"), 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// staleInventoryKeys returns the inventory hashes that belong to none of products
func staleInventoryKeys(existing []string, products []models.Product) []string {
	keep := make(map[string]bool, len(products)+1)
	keep[alertsKey] = true
	for _, p := range products {
		keep[inventoryKey(p.ID)] = true
	}
	var stale []string
	for _, k := range existing {
		if !keep[k] {
			stale = append(stale, k)
		}
	}
	return stale
}

// GetInventory reads the mirrored stock level of a product
func (c *Client) GetInventory(ctx context.Context, productID string) (inventory, threshold int, err error) {
	result, err := c.rdb.HGetAll(ctx, inventoryKey(productID)).Result()
	if err != nil {
		return 0, 0, err
	}
	if len(result) == 0 {
		return 0, 0, fmt.Errorf("inventory not found for product %s", productID)
	}

	if inventory, err = strconv.Atoi(result["inventory"]); err != nil {
		return 0, 0, fmt.Errorf("invalid inventory for product %s: %w", productID, err)
	}
	threshold, _ = strconv.Atoi(result["threshold"])
	return inventory, threshold, nil
}

// DeleteInventory drops the mirror of a deleted product
func (c *Client) DeleteInventory(ctx context.Context, productID string) error {
	return c.rdb.Del(ctx, inventoryKey(productID)).Err()
}

// ReplaceAlerts atomically swaps the mirrored alert set using a Lua script
func (c *Client) ReplaceAlerts(ctx context.Context, alerts []models.InventoryAlert) error {
	args, err := alertArgs(alerts)
	if err != nil {
		return err
	}
	if _, err := c.replaceAlerts.Run(ctx, c.rdb, []string{alertsKey}, args...).Result(); err != nil {
		return fmt.Errorf("replace alerts script failed: %w", err)
	}
	return nil
}

// Alerts reads the mirrored alert set, oldest first
func (c *Client) Alerts(ctx context.Context) ([]models.InventoryAlert, error) {
	result, err := c.rdb.HGetAll(ctx, alertsKey).Result()
	if err != nil {
		return nil, err
	}
	return decodeAlerts(result)
}

func alertArgs(alerts []models.InventoryAlert) ([]interface{}, error) {
	args := make([]interface{}, 0, len(alerts)*2)
	for _, a := range alerts {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("failed to encode alert %s: %w", a.ProductID, err)
		}
		args = append(args, a.ProductID, string(data))
	}
	return args, nil
}

func decodeAlerts(fields map[string]string) ([]models.InventoryAlert, error) {
	alerts := make([]models.InventoryAlert, 0, len(fields))
	for id, raw := range fields {
		var a models.InventoryAlert
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("failed to decode alert %s: %w", id, err)
		}
		alerts = append(alerts, a)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].ProductID < alerts[j].ProductID
		}
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
	return alerts, nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKey(key), value, ttl).Err()
}

// ClaimIdempotencyKey stores the key only if it is new; false means it was already claimed
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, idempotencyKey(key), "processing", ttl).Result()
}

// ReleaseIdempotencyKey forgets a claim so the key can be retried
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(key)).Err()
}

// GetIdempotencyKey returns the value stored under an idempotency key
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, idempotencyKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}
