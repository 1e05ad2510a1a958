package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
	now      func() time.Time
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, cache cache.CartCache) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cache,
		now:      time.Now,
	}
}

// GetCart returns the user's cart with every line resolved to its product.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	view := cart.Populate(domain.IndexProducts(products))
	return &view, nil
}

// loadCart reads the stored cart through the cache. Mutators never use it:
// they must see the current version.
func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cart cache get failed", "user_id", userID, "error", err)
		}

		// Taken before the read so an invalidation in between blocks the write.
		gen, genErr := s.cache.Generation(ctx, userID)
		if genErr != nil {
			slog.WarnContext(ctx, "cart cache generation failed", "user_id", userID, "error", genErr)
		}

		cart, err = s.carts.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			return cart, nil
		}

		switch errSet := s.cache.Set(ctx, userID, cart, gen); {
		case errSet == nil:
		case errors.Is(errSet, cache.ErrStale):
			slog.DebugContext(ctx, "cart changed while loading, not cached", "user_id", userID)
		default:
			slog.WarnContext(ctx, "cart cache set failed", "user_id", userID, "error", errSet)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem adds quantity of a product to the user's cart, creating the cart
// on first use. The returned message names the product.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, string, error) {
	if quantity <= 0 {
		return nil, "", fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidQuantity)
	}
	id, err := parseID(productID, ErrProductNotFound)
	if err != nil {
		return nil, "", err
	}

	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, "", err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	switch {
	case errors.Is(err, ErrCartNotFound):
		cart = domain.NewCart(userID, s.now().UTC())
	case err != nil:
		return nil, "", err
	}

	cart.AddQuantity(id, quantity)

	saved, err := s.save(ctx, cart)
	if err != nil {
		return nil, "", err
	}
	return saved, fmt.Sprintf("%s added to cart successfully", product.Name), nil
}

// SetItemQuantity sets the quantity of a line. Zero removes an existing
// line; zero on an absent line returns the cart untouched without a write.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidQuantity)
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	id, err := parseID(productID, ErrProductNotFound)
	if err != nil {
		if quantity == 0 {
			return cart, nil
		}
		return nil, err
	}

	if cart.FindItem(id) < 0 {
		if quantity == 0 {
			return cart, nil
		}
		if _, err := s.products.GetProduct(ctx, id); err != nil {
			return nil, err
		}
	}

	cart.SetQuantity(id, quantity)
	return s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	id, err := parseID(productID, ErrItemNotFound)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(id) {
		return nil, ErrItemNotFound
	}

	return s.save(ctx, cart)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	return s.save(ctx, cart)
}

// save recomputes the cart against live prices and writes it with a
// version check. Nothing is written when any line cannot be priced.
func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	products, err := s.products.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	priced, err := domain.RecomputeCart(*cart, domain.IndexProducts(products))
	if err != nil {
		return nil, err
	}

	errSave := s.carts.SaveCart(ctx, &priced)
	// A conflict means the cached copy may be stale as well.
	s.invalidateCache(ctx, cart.UserID)
	if errSave != nil {
		return nil, errSave
	}

	return &priced, nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.WarnContext(ctx, "cart cache invalidate failed", "user_id", userID, "error", err)
	}
}
