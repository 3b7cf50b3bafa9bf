package mongodb

import (
	"context"

	"supportmatch/internal/repositories/interfaces"
	"supportmatch/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactionManager struct {
	db *database.MongoDB
}

func NewTransactionManager(db *database.MongoDB) interfaces.TransactionManager {
	return &transactionManager{db: db}
}

// WithTransaction hands fn the session context, so repository calls made with
// it run inside the transaction. A context that already carries a session joins it.
func (t *transactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	_, err := t.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
