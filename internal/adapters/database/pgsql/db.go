// Package pgsql implements the ledger store on PostgreSQL using pgx.
package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// BaseRepository provides the connection every repository runs its statements on.
type BaseRepository struct {
	db querier
}

// DB is a portsrepo.Database backed by a pgx pool.
type DB struct {
	Pool *pgxpool.Pool
	*store
}

var _ portsrepo.Database = (*DB)(nil)

// NewDB wraps an open pool.
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool, store: &store{base: BaseRepository{db: pool}}}
}

// Begin starts a new database transaction
func (d *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := d.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (d *DB) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (d *DB) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// WithinTx runs fn inside one database transaction. Repositories handed to fn
// issue their statements on that transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = d.Rollback(ctx, tx) }()

	if err := fn(ctx, &store{base: BaseRepository{db: tx}}); err != nil {
		return err
	}
	return d.Commit(ctx, tx)
}

// store binds every repository to one querier.
type store struct {
	base BaseRepository
}

func (s *store) Accounts() portsrepo.AccountRepositoryFacade { return &accountRepository{s.base} }
func (s *store) TaxRates() portsrepo.TaxRateRepositoryFacade { return &taxRateRepository{s.base} }
func (s *store) Fiscal() portsrepo.FiscalRepositoryFacade   { return &fiscalRepository{s.base} }
func (s *store) Journals() portsrepo.JournalRepositoryFacade { return &journalRepository{s.base} }
func (s *store) Budgets() portsrepo.BudgetRepositoryFacade   { return &budgetRepository{s.base} }
func (s *store) Reconciliations() portsrepo.ReconciliationRepositoryFacade {
	return &reconciliationRepository{s.base}
}
func (s *store) Audit() portsrepo.AuditRepositoryFacade { return &auditRepository{s.base} }

const uniqueViolation = "23505"

// translate maps driver errors onto ledger error kinds.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrDuplicate, what, pgErr.ConstraintName)
	}
	return apperrors.NewAppError(500, "failed to "+what, err)
}

// expectOne turns a zero-row update into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// nullIfEmpty stores empty optional references as NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
