package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client, Options{})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user123"
	first := primitive.NewObjectID()

	cart := &domain.Cart{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: first, Quantity: 2, Subtotal: 4},
			{ProductID: primitive.NewObjectID(), Quantity: 3, Subtotal: 3},
		},
		TotalPrice: 7,
		Version:    3,
	}

	cartJSON, _ := json.Marshal(cart)
	mr.Set(cache.cartKey(userID), string(cartJSON))

	result, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, result.UserID)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, first, result.Items[0].ProductID)
	assert.Equal(t, int64(3), result.Version)
	assert.Equal(t, 7.0, result.TotalPrice)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	userID := "user123"
	require.NoError(t, mr.Set(cache.cartKey(userID), `{"userId":"user1`))

	_, err := cache.Get(context.Background(), userID)
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := cache.Get(context.Background(), "user1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user456"

	cart := &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: primitive.NewObjectID(), Quantity: 5},
		},
		CreatedOn: time.Now(),
		UpdatedOn: time.Now(),
	}

	require.NoError(t, cache.Set(ctx, userID, cart, 0))

	stored, err := mr.Get(cache.cartKey(userID))
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	var storedCart domain.Cart
	require.NoError(t, json.Unmarshal([]byte(stored), &storedCart))
	assert.Equal(t, userID, storedCart.UserID)
	assert.Len(t, storedCart.Items, 1)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	userID := "user789"
	err := cache.Set(context.Background(), userID, &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, 0)
	require.NoError(t, err)

	ttl := mr.TTL(cache.cartKey(userID))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl < 20*time.Minute, "TTL should be below base + max jitter")
}

func TestDelete_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	userID := "user999"
	mr.Set(cache.cartKey(userID), `{"userId":"user999"}`)
	assert.True(t, mr.Exists(cache.cartKey(userID)))

	require.NoError(t, cache.Delete(context.Background(), userID))
	assert.False(t, mr.Exists(cache.cartKey(userID)))
}

func TestDelete_NonExistentKey(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, cache.Delete(context.Background(), "nonexistent"))
}

func TestCacheKey_Format(t *testing.T) {
	cache := NewRedisCache(nil, Options{})
	assert.Equal(t, "storefront:cart:test123", cache.cartKey("test123"))
	assert.Equal(t, "storefront:cart:gen:test123", cache.generationKey("test123"))

	custom := NewRedisCache(nil, Options{KeyPrefix: "shop-eu"})
	assert.Equal(t, "shop-eu:cart:test123", custom.cartKey("test123"))
}

func TestSet_CustomTTLWithoutJitter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisCache(client, Options{TTL: time.Minute})
	require.NoError(t, cache.Set(context.Background(), "u1", &domain.Cart{UserID: "u1"}, 0))
	assert.Equal(t, time.Minute, mr.TTL(cache.cartKey("u1")))
}

func TestGeneration_StartsAtZeroAndAdvancesOnDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	gen, err := cache.Generation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Delete(ctx, "u1"))
	require.NoError(t, cache.Delete(ctx, "u1"))

	gen, err = cache.Generation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	assert.True(t, mr.TTL(cache.generationKey("u1")) > 0)
}

// A reader that loaded the cart before an invalidation must not put it back.
func TestSet_RejectsWriteAfterDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user-stale"

	gen, err := cache.Generation(ctx, userID)
	require.NoError(t, err)

	// checkout removes the cart and invalidates while the reader is loading
	require.NoError(t, cache.Delete(ctx, userID))

	err = cache.Set(ctx, userID, &domain.Cart{UserID: userID, Items: []domain.CartItem{{Quantity: 1}}}, gen)
	require.ErrorIs(t, err, ErrStale)
	assert.False(t, mr.Exists(cache.cartKey(userID)))

	_, err = cache.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	fresh, err := cache.Generation(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, userID, &domain.Cart{UserID: userID}, fresh))
	assert.True(t, mr.Exists(cache.cartKey(userID)))
}

func TestNopCache(t *testing.T) {
	var c CartCache = NopCache{}
	ctx := context.Background()

	gen, err := c.Generation(ctx, "u1")
	assert.NoError(t, err)
	assert.NoError(t, c.Set(ctx, "u1", &domain.Cart{}, gen))
	_, err = c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "u1"))
}
