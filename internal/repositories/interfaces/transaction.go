package interfaces

import "context"

// TransactionManager runs fn as one atomic unit. Repositories called with the
// context handed to fn take part in the transaction; returning an error rolls
// every write back. Nested calls join the outer transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
