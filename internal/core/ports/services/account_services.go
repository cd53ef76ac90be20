package services

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations for the chart of accounts.
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, clubID, accountID string) (*domain.Account, error)

	// ListAccounts retrieves the club's chart of accounts ordered by code.
	ListAccounts(ctx context.Context, clubID string) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts.
type AccountWriterSvc interface {
	// CreateAccount persists a new account under an optional header parent.
	CreateAccount(ctx context.Context, clubID string, req dto.CreateAccountRequest, actor string) (*domain.Account, error)

	// MoveAccount re-parents an account and recomputes the paths of its subtree.
	MoveAccount(ctx context.Context, clubID, accountID, newParentID, actor string) (*domain.Account, error)

	// LockAccount blocks new postings to an account. Balance reads are unaffected.
	LockAccount(ctx context.Context, clubID, accountID, actor string) (*domain.Account, error)

	UnlockAccount(ctx context.Context, clubID, accountID, actor string) (*domain.Account, error)

	// DeactivateAccount retires an account with a zero balance.
	DeactivateAccount(ctx context.Context, clubID, accountID, actor string) error
}

// AccountCalculatorSvc defines balance computation.
type AccountCalculatorSvc interface {
	// GetBalance returns the balance of an account as of a date, rebuilt from posted
	// lines. A header aggregates its subtree in its own sign convention.
	GetBalance(ctx context.Context, clubID, accountID string, asOf time.Time) (decimal.Decimal, error)

	// GetTrialBalance lists the balance of every posting account as of a date.
	GetTrialBalance(ctx context.Context, clubID string, asOf time.Time) (*domain.TrialBalance, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountCalculatorSvc
}
