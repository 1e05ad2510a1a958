package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const generationTTL = 24 * time.Hour

type Options struct {
	// KeyPrefix namespaces every key, e.g. "storefront" gives "storefront:cart:<user>".
	KeyPrefix string
	TTL       time.Duration
	// Jitter is the upper bound of a random extra TTL per write.
	Jitter time.Duration
}

func (o Options) withDefaults() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = "storefront"
	}
	if o.TTL <= 0 {
		o.TTL = 15 * time.Minute
	}
	if o.Jitter < 0 {
		o.Jitter = 0
	}
	return o
}

func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	return &RedisCache{
		client: client,
		opts:   opts.withDefaults(),
	}
}

type RedisCache struct {
	client *redis.Client
	opts   Options
}

func (r RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.client.Get(ctx, r.generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// Set stores cart only while the user's generation still equals generation.
// The generation key is watched, so a Delete racing the write aborts it.
func (r RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart, generation int64) error {
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	genKey := r.generationKey(userID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, getErr := tx.Get(ctx, genKey).Int64()
		if getErr != nil && !errors.Is(getErr, redis.Nil) {
			return getErr
		}
		if current != generation {
			return ErrStale
		}
		_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.cartKey(userID), jsonCart, r.ttl())
			return nil
		})
		return pipeErr
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Delete drops the cached cart and advances the generation.
func (r RedisCache) Delete(ctx context.Context, userID string) error {
	genKey := r.generationKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, r.cartKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expiry of carts cached at the same moment.
func (r RedisCache) ttl() time.Duration {
	if r.opts.Jitter <= 0 {
		return r.opts.TTL
	}
	return r.opts.TTL + time.Duration(rand.Int63n(int64(r.opts.Jitter)))
}

func (r RedisCache) cartKey(userID string) string {
	return fmt.Sprintf("%s:cart:%s", r.opts.KeyPrefix, userID)
}

func (r RedisCache) generationKey(userID string) string {
	return fmt.Sprintf("%s:cart:gen:%s", r.opts.KeyPrefix, userID)
}
