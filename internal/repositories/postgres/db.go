// Package postgres implements the repositories on PostgreSQL through GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction bound to ctx, or the root handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) interfaces.TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return interfaces.ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%s: %w", op, interfaces.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// conflictOrNotFound explains why a conditional update touched no rows.
func conflictOrNotFound(db *gorm.DB, model interface{}, id string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check record: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrConflict
}

// orderBy keeps sorting on columns the table actually has.
func orderBy(params *utils.PaginationParams, columns ...string) string {
	for _, c := range columns {
		if params.Sort == c {
			return params.OrderClause()
		}
	}
	return "created_at " + params.Order
}
