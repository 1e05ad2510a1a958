package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is the per-user shopping cart. At most one exists per UserID.
// Version is bumped on every successful save and guards against lost updates.
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     string             `bson:"user_id" json:"userId"`
	Items      []CartItem         `bson:"cart_items" json:"cartItems"`
	TotalPrice float64            `bson:"total_price" json:"totalPrice"`
	Version    int64              `bson:"version" json:"version"`
	CreatedOn  time.Time          `bson:"created_on" json:"createdOn"`
	UpdatedOn  time.Time          `bson:"updated_on" json:"updatedOn"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		CreatedOn: now,
		UpdatedOn: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the index of the line holding productID, or -1.
func (c *Cart) FindItem(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddQuantity increments an existing line or appends a new one.
// Subtotals are left for RecomputeCart.
func (c *Cart) AddQuantity(productID primitive.ObjectID, quantity int) {
	if i := c.FindItem(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
}

// SetQuantity sets the quantity of a line. Zero removes the line when present
// and is a no-op otherwise; a positive quantity on an absent line appends it.
func (c *Cart) SetQuantity(productID primitive.ObjectID, quantity int) {
	i := c.FindItem(productID)
	switch {
	case quantity == 0 && i >= 0:
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	case quantity > 0 && i >= 0:
		c.Items[i].Quantity = quantity
	case quantity > 0:
		c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	}
}

func (c *Cart) RemoveItem(productID primitive.ObjectID) bool {
	i := c.FindItem(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalPrice = 0
}

func (c *Cart) ProductIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// CartView is a cart with product details resolved for each line.
type CartView struct {
	ID         primitive.ObjectID `json:"_id"`
	UserID     string             `json:"userId"`
	Items      []CartItemView     `json:"cartItems"`
	TotalPrice float64            `json:"totalPrice"`
	CreatedOn  time.Time          `json:"createdOn"`
	UpdatedOn  time.Time          `json:"updatedOn"`
}

type CartItemView struct {
	ProductID primitive.ObjectID `json:"productId"`
	Product   *Product           `json:"product"`
	Quantity  int                `json:"quantity"`
	Subtotal  float64            `json:"subtotal"`
}

// Populate resolves each line against products. Lines whose product can no
// longer be found keep a nil Product.
func (c *Cart) Populate(products PriceLookup) CartView {
	view := CartView{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      make([]CartItemView, 0, len(c.Items)),
		TotalPrice: c.TotalPrice,
		CreatedOn:  c.CreatedOn,
		UpdatedOn:  c.UpdatedOn,
	}
	for _, item := range c.Items {
		line := CartItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
		if p, ok := products.Lookup(item.ProductID); ok {
			line.Product = &p
		}
		view.Items = append(view.Items, line)
	}
	return view
}
