package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	t.Setenv("ELASTICSEARCH_ADDRESSES", "")

	cfg := Load()
	assert.Equal(t, 5, cfg.Business.LowStockThreshold)
	assert.Equal(t, "catalog-events", cfg.Kafka.TopicEvents)
	assert.Equal(t, "storefront-events", cfg.Kafka.TopicStorefront)
	assert.False(t, cfg.Search.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Business.IdempotencyTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "12")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ELASTICSEARCH_ADDRESSES", "http://es:9200")
	t.Setenv("IDEMPOTENCY_TTL", "30m")

	cfg := Load()
	assert.Equal(t, 12, cfg.Business.LowStockThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Search.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Business.IdempotencyTTL)
}

func TestLoadRejectsNegativeThreshold(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "-3")
	assert.Equal(t, 5, Load().Business.LowStockThreshold)
}
