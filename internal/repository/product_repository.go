package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

func (m productRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedOn = now
	product.UpdatedOn = now

	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m productRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m productRepository) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	return m.findOne(ctx, bson.M{"name": name})
}

func (m productRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (m productRepository) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	return m.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (m productRepository) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if f.NameContains != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.NameContains), "$options": "i"}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_on", Value: 1}, {Key: "_id", Value: 1}})
	return m.find(ctx, filter, opts)
}

func (m productRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Product, error) {
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m productRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, u domain.ProductFields) (*domain.Product, error) {
	set := bson.M{"updated_on": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}

	product, err := m.findOneAndSet(ctx, id, set)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateProduct
	}
	return product, err
}

func (m productRepository) SetProductActive(ctx context.Context, id primitive.ObjectID, active bool) (*domain.Product, error) {
	return m.findOneAndSet(ctx, id, bson.M{"is_active": active, "updated_on": time.Now().UTC()})
}

func (m productRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*domain.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}
