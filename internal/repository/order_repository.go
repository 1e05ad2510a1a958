package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

// CreateOrder returns ErrDuplicateOrder when an order for the same
// (cart_id, cart_version) is already stored.
func (m orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m orderRepository) GetOrder(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return &order, nil
}

// GetOrderByCart finds the order placed from one cart version.
func (m orderRepository) GetOrderByCart(ctx context.Context, cartID primitive.ObjectID, cartVersion int64) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"cart_id": cartID, "cart_version": cartVersion}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by cart: %w", err)
	}
	return &order, nil
}

func (m orderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.find(ctx, bson.M{"user_id": userID}, newestFirst())
}

func (m orderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.find(ctx, bson.M{}, newestFirst())
}

// UpdateOrderStatus moves an order from one status to another. The write is
// conditional on the stored status still being from.
func (m orderRepository) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to domain.OrderStatus) (*domain.Order, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_on": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order domain.Order
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &order, nil
}

func (m orderRepository) ListUnpublishedOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "ordered_on", Value: 1}}).
		SetLimit(int64(limit))
	return m.find(ctx, bson.M{"published_at": nil}, opts)
}

func (m orderRepository) MarkOrderPublished(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"published_at": time.Now().UTC()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mark order published: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m orderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Order, error) {
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "ordered_on", Value: -1}, {Key: "_id", Value: -1}})
}
