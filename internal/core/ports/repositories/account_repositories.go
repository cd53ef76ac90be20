package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data.
// Every read is scoped by club; an account of another club is reported as not found.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, clubID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its club-unique code.
	FindAccountByCode(ctx context.Context, clubID, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs are absent from the map.
	FindAccountsByIDs(ctx context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves every account of a club ordered by code.
	ListAccounts(ctx context.Context, clubID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. A code clash yields apperrors.ErrDuplicateCode.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details and balance caches.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountTransactionSupport defines operations used while posting.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks their rows until the unit of work ends.
	FindAccountsByIDsForUpdate(ctx context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltas adds signed deltas to the balance caches of several accounts.
	ApplyBalanceDeltas(ctx context.Context, clubID string, deltas map[string]domain.BalanceDelta, actor string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
