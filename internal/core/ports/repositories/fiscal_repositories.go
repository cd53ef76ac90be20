package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// FiscalReader defines read operations for fiscal years and periods.
type FiscalReader interface {
	// FindYearByID returns the year with its periods ordered by number.
	FindYearByID(ctx context.Context, clubID, fiscalYearID string) (*domain.FiscalYear, error)

	// ListYears returns all years of a club ordered by start date, periods included.
	ListYears(ctx context.Context, clubID string) ([]domain.FiscalYear, error)

	FindPeriodByID(ctx context.Context, clubID, fiscalPeriodID string) (*domain.FiscalPeriod, error)

	// FindPeriodByDate returns the period containing date, or apperrors.ErrNotFound.
	FindPeriodByDate(ctx context.Context, clubID string, date time.Time) (*domain.FiscalPeriod, error)

	// FindCurrentPeriod returns the club's CURRENT period, or apperrors.ErrNotFound.
	FindCurrentPeriod(ctx context.Context, clubID string) (*domain.FiscalPeriod, error)
}

// FiscalWriter defines write operations for fiscal years and periods.
type FiscalWriter interface {
	// SaveYear persists a new year together with its periods.
	SaveYear(ctx context.Context, year domain.FiscalYear) error

	// UpdateYear updates year header fields; periods are left untouched.
	UpdateYear(ctx context.Context, year domain.FiscalYear) error

	UpdatePeriod(ctx context.Context, period domain.FiscalPeriod) error
}

// FiscalRepositoryFacade combines fiscal calendar persistence.
type FiscalRepositoryFacade interface {
	FiscalReader
	FiscalWriter
}
