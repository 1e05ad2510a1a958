package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var ErrIllegalTransition = errors.New("illegal transition of order status")

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is a copied line of the cart at checkout time. Later price
// changes never reach it.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"product_id" json:"productId"`
	ProductName string             `bson:"product_name" json:"productName"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	UnitPrice   float64            `bson:"unit_price" json:"unitPrice"`
	Subtotal    float64            `bson:"subtotal" json:"subtotal"`
}

// Order is an immutable snapshot of a cart. Only Status (and the outbox
// marker PublishedAt) changes after creation.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID          string             `bson:"user_id" json:"userId"`
	CartID          primitive.ObjectID `bson:"cart_id" json:"-"`
	CartVersion     int64              `bson:"cart_version" json:"-"`
	ProductsOrdered []OrderItem        `bson:"products_ordered" json:"productsOrdered"`
	TotalPrice      float64            `bson:"total_price" json:"totalPrice"`
	Status          OrderStatus        `bson:"status" json:"status"`
	OrderedOn       time.Time          `bson:"ordered_on" json:"orderedOn"`
	UpdatedOn       time.Time          `bson:"updated_on" json:"updatedOn"`
	PublishedAt     *time.Time         `bson:"published_at" json:"-"`
}

// Snapshot recomputes cart against prices and copies the result into a new
// pending order.
func Snapshot(cart Cart, prices PriceLookup, now time.Time) (*Order, error) {
	priced, err := RecomputeCart(cart, prices)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(priced.Items))
	for _, item := range priced.Items {
		// RecomputeCart already proved every product resolves.
		product, _ := prices.Lookup(item.ProductID)
		items = append(items, OrderItem{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    item.Subtotal,
		})
	}

	return &Order{
		ID:              primitive.NewObjectID(),
		UserID:          cart.UserID,
		CartID:          cart.ID,
		CartVersion:     cart.Version,
		ProductsOrdered: items,
		TotalPrice:      priced.TotalPrice,
		Status:          OrderStatusPending,
		OrderedOn:       now,
		UpdatedOn:       now,
	}, nil
}
