package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A miss returns (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL. A non-positive TTL skips the write.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
// 추천 결과는 워크로드 변동 때문에 짧게 유지
const (
	TTLRecommendation = 30 * time.Second
	TTLSupplierScore  = 15 * time.Second
)

// RecommendationKey identifies one ranked list request.
// configHash is part of the key so a coefficient change never serves old rankings.
func RecommendationKey(configHash string, itemID int64, category, product string, quantity int, scoped bool, topK int) string {
	scope := "all"
	if scoped {
		scope = "category"
	}
	return fmt.Sprintf("recommend:%s:%d:%s:%s:%d:%s:%d",
		shortHash(configHash), itemID, keyPart(category), keyPart(product), quantity, scope, topK)
}

// SupplierScoreKey identifies one single-supplier breakdown request
func SupplierScoreKey(configHash string, supplierID int64, category, product string, quantity int) string {
	return fmt.Sprintf("score:%s:%d:%s:%s:%d",
		shortHash(configHash), supplierID, keyPart(category), keyPart(product), quantity)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func keyPart(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, ":", "_")
}
