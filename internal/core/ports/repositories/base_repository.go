package repositories

import "context"

// TransactionManager runs a unit of work. fn's writes commit together when
// it returns nil and are discarded otherwise.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Database is a Store that can also open units of work.
// Mutations must go through WithinTx; the Store methods are for reads.
type Database interface {
	Store
	TransactionManager
}
