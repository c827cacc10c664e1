package cache

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisOrderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisOrderCache(client, time.Minute), mr
}

func order(version int64, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID: 		"o-1",
		ListingID: 	"listing-1",
		BuyerID: 	"buyer-1",
		SellerID: 	"seller-1",
		Quantity: 	1,
		UnitPrice: 	1500,
		Currency: 	"USD",
		Status: 	status,
		CreatedAt: 	time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: 	time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Version: 	version,
	}
}

func TestGet_CacheMiss(t *testing.T) {
	c, _ := setupTestRedis(t)
	_, err := c.Get(context.Background(), "o-1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestSetAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, order(2, domain.StatusConfirmed)))
	got, err := c.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, mr.TTL(cacheKey("o-1")) >= time.Minute)
}

func TestSet_IgnoresOlderVersion(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, order(3, domain.StatusShipped)))
	require.NoError(t, c.Set(ctx, order(2, domain.StatusConfirmed)))

	got, err := c.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)
}

func TestDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, order(1, domain.StatusPending)))
	require.NoError(t, c.Delete(ctx, "o-1"))
	assert.False(t, mr.Exists(cacheKey("o-1")))
}

func TestGet_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "o-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}
