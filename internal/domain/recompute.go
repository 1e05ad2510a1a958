package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUnpricedItem    = errors.New("cart item price cannot be resolved")
	ErrInvalidQuantity = errors.New("cart item quantity must be a positive integer")
)

// PriceLookup resolves the authoritative product record for a cart line.
type PriceLookup interface {
	Lookup(id primitive.ObjectID) (Product, bool)
}

// ProductIndex is a PriceLookup backed by a map.
type ProductIndex map[primitive.ObjectID]Product

func IndexProducts(products []Product) ProductIndex {
	idx := make(ProductIndex, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

func (idx ProductIndex) Lookup(id primitive.ObjectID) (Product, bool) {
	p, ok := idx[id]
	return p, ok
}

// RecomputeCart re-derives every line subtotal and the cart total from the
// current product prices. The input cart is not modified.
//
// Any line that cannot be priced (product missing, or a price that is NaN,
// infinite or negative) fails the whole recompute with ErrUnpricedItem.
func RecomputeCart(cart Cart, prices PriceLookup) (Cart, error) {
	out := cart
	out.Items = make([]CartItem, len(cart.Items))

	total := decimal.Zero
	for i, item := range cart.Items {
		if item.Quantity <= 0 {
			return Cart{}, fmt.Errorf("%w: product %s has quantity %d", ErrInvalidQuantity, item.ProductID.Hex(), item.Quantity)
		}
		product, ok := prices.Lookup(item.ProductID)
		if !ok {
			return Cart{}, fmt.Errorf("%w: product %s not found", ErrUnpricedItem, item.ProductID.Hex())
		}
		subtotal, err := lineSubtotal(product.Price, item.Quantity)
		if err != nil {
			return Cart{}, fmt.Errorf("%w: product %s: %v", ErrUnpricedItem, item.ProductID.Hex(), err)
		}

		out.Items[i] = CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  subtotal.InexactFloat64(),
		}
		total = total.Add(subtotal)
	}

	out.TotalPrice = total.InexactFloat64()
	return out, nil
}

func lineSubtotal(price float64, quantity int) (decimal.Decimal, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return decimal.Zero, fmt.Errorf("price %v is not a number", price)
	}
	if price < 0 {
		return decimal.Zero, fmt.Errorf("price %v is negative", price)
	}
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))), nil
}
