package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedOn   time.Time          `bson:"created_on" json:"createdOn"`
	UpdatedOn   time.Time          `bson:"updated_on" json:"updatedOn"`
}

// ProductFields carries product attributes supplied by a client.
// A nil field was not provided.
type ProductFields struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
}

func (u ProductFields) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Image == nil
}
