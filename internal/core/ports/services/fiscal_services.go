package services

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// FiscalReaderSvc defines read operations for the fiscal calendar.
type FiscalReaderSvc interface {
	GetFiscalYear(ctx context.Context, clubID, fiscalYearID string) (*domain.FiscalYear, error)
	ListFiscalYears(ctx context.Context, clubID string) ([]domain.FiscalYear, error)

	// GetPeriodStatus returns the period containing date.
	GetPeriodStatus(ctx context.Context, clubID string, date time.Time) (*domain.FiscalPeriod, error)
}

// FiscalWriterSvc defines the fiscal calendar lifecycle.
type FiscalWriterSvc interface {
	// CreateFiscalYear creates a year with monthly or explicitly supplied periods.
	CreateFiscalYear(ctx context.Context, clubID string, req dto.CreateFiscalYearRequest, actor string) (*domain.FiscalYear, error)

	// SetCurrentPeriod promotes an open period and demotes the club's previous CURRENT period atomically.
	SetCurrentPeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error)

	// ClosePeriod freezes a period's totals after checking every posted entry balances.
	ClosePeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error)

	// ReopenPeriod returns a closed period to OPEN, recording reason and actor.
	ReopenPeriod(ctx context.Context, clubID, periodID, reason, actor string) (*domain.FiscalPeriod, error)

	// LockPeriod makes a closed period permanently immutable.
	LockPeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error)

	// CloseYear posts the closing entry into retained earnings and rolls balances forward.
	CloseYear(ctx context.Context, clubID, fiscalYearID, actor string) (*domain.FiscalYear, error)

	SetAllowPostingToClosed(ctx context.Context, clubID, fiscalYearID string, allow bool, actor string) (*domain.FiscalYear, error)
}

// FiscalSvcFacade combines the fiscal calendar service interfaces.
type FiscalSvcFacade interface {
	FiscalReaderSvc
	FiscalWriterSvc
}
