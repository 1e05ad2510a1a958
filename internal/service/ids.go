package service

import "go.mongodb.org/mongo-driver/bson/primitive"

// parseID resolves a client supplied id. A malformed id cannot name any
// stored document, so it is reported as notFound.
func parseID(hex string, notFound error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}
