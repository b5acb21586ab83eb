// Package cache keeps the public available-items list in Redis. A nil or
// disconnected cache degrades to a no-op so the form keeps working.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vichambarde/serverroom/internal/models"
)

const AvailableItemsKey = "items:available"

type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to addr. On any failure it returns a disabled cache along
// with the error, so callers may log and continue.
func Open(ctx context.Context, addr, password string, ttl time.Duration) (*ItemCache, error) {
	if addr == "" {
		return &ItemCache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &ItemCache{}, err
	}
	return New(client, ttl), nil
}

func New(client *redis.Client, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ItemCache{client: client, ttl: ttl}
}

func (c *ItemCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetAvailable returns the cached list and whether it was a hit.
func (c *ItemCache) GetAvailable(ctx context.Context) ([]models.AvailableItem, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, AvailableItemsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var items []models.AvailableItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *ItemCache) SetAvailable(ctx context.Context, items []models.AvailableItem) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, AvailableItemsKey, data, c.ttl).Err(); err != nil {
		log.Printf("[Cache] set %s: %v", AvailableItemsKey, err)
	}
}

// Invalidate drops the cached list after any stock change.
func (c *ItemCache) Invalidate(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, AvailableItemsKey).Err(); err != nil {
		log.Printf("[Cache] invalidate %s: %v", AvailableItemsKey, err)
	}
}

func (c *ItemCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
