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
)

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{
		collection: db.Collection("carts"),
	}
}

func (m cartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	return &cart, nil
}

// SaveCart inserts a cart with Version 0 and otherwise replaces the stored
// lines only if the stored version still equals cart.Version. On success
// cart.Version is advanced to the stored value.
func (m cartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	if cart.Version == 0 {
		if cart.ID.IsZero() {
			cart.ID = primitive.NewObjectID()
		}
		if cart.CreatedOn.IsZero() {
			cart.CreatedOn = now
		}
		cart.UpdatedOn = now
		cart.Version = 1

		if _, err := m.collection.InsertOne(ctx, cart); err != nil {
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return ErrCartVersionConflict
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}

	filter := bson.M{"_id": cart.ID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"cart_items":  cart.Items,
			"total_price": cart.TotalPrice,
			"updated_on":  now,
			"version":     cart.Version + 1,
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartVersionConflict
	}

	cart.Version++
	cart.UpdatedOn = now
	return nil
}

// DeleteCart removes the cart only while it is still the one identified by
// cartID and has not been saved past maxVersion. A cart recreated or edited
// after checkout survives.
func (m cartRepository) DeleteCart(ctx context.Context, userID string, cartID primitive.ObjectID, maxVersion int64) error {
	filter := bson.M{"user_id": userID, "_id": cartID, "version": bson.M{"$lte": maxVersion}}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}
