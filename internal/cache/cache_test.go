package cache

import (
	"context"
	"testing"
	"time"

	"procurement/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *DocumentCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewDocumentCache(rdb, time.Minute)
}

func TestDocumentCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	pr := &model.PurchaseRequest{
		ID:     uuid.New(),
		PRNo:   "PR-20260829-00001",
		BuCode: "bu-001",
		Status: model.PRStatusDraft,
	}

	_, hit := c.GetDocument(ctx, pr.BuCode, pr.ID)
	assert.False(t, hit)

	require.NoError(t, c.SetDocument(ctx, pr))
	got, hit := c.GetDocument(ctx, pr.BuCode, pr.ID)
	require.True(t, hit)
	assert.Equal(t, pr.PRNo, got.PRNo)
	assert.Equal(t, pr.Status, got.Status)
}

func TestDocumentCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	pr := &model.PurchaseRequest{ID: uuid.New(), BuCode: "bu-001"}

	require.NoError(t, c.SetDocument(ctx, pr))
	require.NoError(t, c.Invalidate(ctx, pr.BuCode, pr.ID))

	_, hit := c.GetDocument(ctx, pr.BuCode, pr.ID)
	assert.False(t, hit)
}

func TestDocumentCacheKeyShape(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "purchase-request:bu-001:11111111-2222-3333-4444-555555555555", Key("bu-001", id))
}

func TestNilCacheIsInert(t *testing.T) {
	var c *DocumentCache
	ctx := context.Background()

	_, hit := c.GetDocument(ctx, "bu", uuid.New())
	assert.False(t, hit)
	assert.NoError(t, c.SetDocument(ctx, &model.PurchaseRequest{}))
	assert.NoError(t, c.Invalidate(ctx, "bu", uuid.New()))
}
