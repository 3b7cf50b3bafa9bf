package mongodb

import (
	"context"
	"errors"
	"fmt"

	"supportmatch/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return interfaces.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, interfaces.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// conflictOrNotFound explains why a conditional update matched nothing.
func conflictOrNotFound(ctx context.Context, collection *mongo.Collection, id string) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check record: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrConflict
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, cursor.Err()
}
