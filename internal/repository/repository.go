package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrCartVersionConflict = errors.New("cart was modified concurrently")
	ErrProductNotFound     = errors.New("product not found")
	ErrDuplicateProduct    = errors.New("product already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrder      = errors.New("order for this cart state already exists")
	ErrOrderStatusConflict = errors.New("order status changed concurrently")
)

// CartRepository stores one cart document per user.
// SaveCart is a compare-and-swap on Cart.Version.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string, cartID primitive.ObjectID, maxVersion int64) error
}

// ProductFilter narrows ListProducts. Zero value lists everything.
type ProductFilter struct {
	ActiveOnly   bool
	NameContains string
	MinPrice     *float64
	MaxPrice     *float64
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, update domain.ProductFields) (*domain.Product, error)
	SetProductActive(ctx context.Context, id primitive.ObjectID, active bool) (*domain.Product, error)
}

// OrderRepository stores placed orders. Unpublished orders double as the
// outbox for the order-placed publisher.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	GetOrderByCart(ctx context.Context, cartID primitive.ObjectID, cartVersion int64) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to domain.OrderStatus) (*domain.Order, error)
	ListUnpublishedOrders(ctx context.Context, limit int) ([]domain.Order, error)
	MarkOrderPublished(ctx context.Context, id primitive.ObjectID) error
}
