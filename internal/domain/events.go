package domain

import "time"

const EventTypeOrderPlaced = "order.placed"

// OrderPlacedEvent is the payload published for every new order.
type OrderPlacedEvent struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	CartID      string      `json:"cart_id"`
	CartVersion int64       `json:"cart_version"`
	Items       []OrderItem `json:"items"`
	TotalPrice  float64     `json:"total_price"`
	Status      string      `json:"status"`
	OrderedOn   time.Time   `json:"ordered_on"`
}

func NewOrderPlacedEvent(o Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     o.ID.Hex(),
		UserID:      o.UserID,
		CartID:      o.CartID.Hex(),
		CartVersion: o.CartVersion,
		Items:       o.ProductsOrdered,
		TotalPrice:  o.TotalPrice,
		Status:      o.Status.String(),
		OrderedOn:   o.OrderedOn,
	}
}
