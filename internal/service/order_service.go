package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// ListMyOrders returns the user's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoOrdersForUser
	}
	return orders, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	return orders, nil
}

// UpdateStatus advances an order along the fulfillment lifecycle. Only
// status and updated_on change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	id, err := parseID(orderID, ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionTo(order.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrIllegalTransition, order.Status, to)
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, id, order.Status, to)
	if errors.Is(err, repository.ErrOrderStatusConflict) {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrIllegalTransition)
	}
	return updated, err
}
