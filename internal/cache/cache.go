package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// CartCache holds the stored cart document, never the populated view:
// product details are always resolved live.
//
// Every Delete advances a per-user generation. A reader takes the generation
// before loading the cart from the store and passes it to Set, which refuses
// to write once a Delete has happened in between.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, cart *domain.Cart, generation int64) error
	Delete(ctx context.Context, userID string) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the cart was invalidated after the
	// caller read its generation.
	ErrStale = errors.New("cache generation changed")
)

// NopCache is used when no Redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Cart, error)      { return nil, ErrCacheMiss }
func (NopCache) Generation(context.Context, string) (int64, error)      { return 0, nil }
func (NopCache) Set(context.Context, string, *domain.Cart, int64) error { return nil }
func (NopCache) Delete(context.Context, string) error                   { return nil }
