package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DocumentCache is a Redis lookaside cache for purchase request documents.
// Every successful mutation invalidates the document's entry; reads fall
// back to the database on a miss. A nil cache is valid and caches nothing,
// so Redis stays optional in development.
type DocumentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDocumentCache(rdb *redis.Client, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DocumentCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for one document.
func Key(buCode string, id uuid.UUID) string {
	return fmt.Sprintf("purchase-request:%s:%s", buCode, id)
}

// GetDocument returns the cached document, or false on a miss or any
// transport/decoding problem (treated as a miss, never surfaced).
func (c *DocumentCache) GetDocument(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, Key(buCode, id)).Bytes()
	if err != nil {
		return nil, false
	}
	var pr model.PurchaseRequest
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, false
	}
	return &pr, true
}

// SetDocument stores the document under its key with the configured TTL.
func (c *DocumentCache) SetDocument(ctx context.Context, pr *model.PurchaseRequest) error {
	if c == nil || c.rdb == nil || pr == nil {
		return nil
	}
	raw, err := json.Marshal(pr)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(pr.BuCode, pr.ID), raw, c.ttl).Err()
}

// Invalidate drops the document's cache entry.
func (c *DocumentCache) Invalidate(ctx context.Context, buCode string, id uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, Key(buCode, id)).Err()
}
