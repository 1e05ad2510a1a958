package service

import (
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// ErrInvalidInput is the parent of every validation failure.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidQuantity    = fmt.Errorf("%w: invalid quantity", ErrInvalidInput)
	ErrInvalidProduct     = fmt.Errorf("%w: invalid product", ErrInvalidInput)
	ErrInvalidProductName = fmt.Errorf("%w: invalid product name", ErrInvalidInput)
	ErrInvalidPriceRange  = fmt.Errorf("%w: invalid price values", ErrInvalidInput)
	ErrInvalidStatus      = fmt.Errorf("%w: invalid order status", ErrInvalidInput)
	ErrNothingToUpdate    = fmt.Errorf("%w: no fields to update", ErrInvalidInput)
)

var (
	ErrCartNotFound      = repository.ErrCartNotFound
	ErrProductNotFound   = repository.ErrProductNotFound
	ErrOrderNotFound     = repository.ErrOrderNotFound
	ErrDuplicateProduct  = repository.ErrDuplicateProduct
	ErrCartConflict      = repository.ErrCartVersionConflict
	ErrUnpricedItem      = domain.ErrUnpricedItem
	ErrIllegalTransition = domain.ErrIllegalTransition

	ErrItemNotFound      = errors.New("product not found in cart")
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrNoProducts        = errors.New("no products found")
	ErrNoProductsInRange = errors.New("no products found in this price range")
	ErrNoOrders          = errors.New("no orders found")
	ErrNoOrdersForUser   = errors.New("no orders found for this user")
)
