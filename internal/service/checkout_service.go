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
)

type CheckoutService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	cache    cache.CartCache
	now      func() time.Time
}

func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	cache cache.CartCache,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		orders:   orders,
		cache:    cache,
		now:      time.Now,
	}
}

// Checkout turns the user's cart into a pending order and deletes the cart.
//
// The order insert and the cart delete are separate writes. An order for
// the same cart version that already exists counts as placed. A failed
// delete is logged and left to the cart reconciler, which removes the cart
// once the order-placed event is consumed.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	products, err := s.products.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	order, err := domain.Snapshot(*cart, domain.IndexProducts(products), s.now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.orders.CreateOrder(ctx, order)
	switch {
	case errors.Is(err, repository.ErrDuplicateOrder):
		placed, errGet := s.orders.GetOrderByCart(ctx, cart.ID, cart.Version)
		if errGet != nil {
			return nil, fmt.Errorf("load order placed for cart version: %w", errGet)
		}
		order = placed
		slog.InfoContext(ctx, "order already placed for cart version",
			"user_id", userID, "order_id", order.ID.Hex(), "cart_id", cart.ID.Hex(), "cart_version", cart.Version)
	case err != nil:
		return nil, err
	}

	if errDel := s.carts.DeleteCart(ctx, userID, cart.ID, cart.Version); errDel != nil && !errors.Is(errDel, ErrCartNotFound) {
		slog.ErrorContext(ctx, "cart delete after checkout failed",
			"user_id", userID, "order_id", order.ID.Hex(), "cart_id", cart.ID.Hex(), "error", errDel)
	}

	ctxCache, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if errCache := s.cache.Delete(ctxCache, userID); errCache != nil {
		slog.WarnContext(ctx, "cart cache invalidate failed", "user_id", userID, "error", errCache)
	}

	return order, nil
}
