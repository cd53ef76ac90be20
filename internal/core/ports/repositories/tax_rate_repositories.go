package repositories

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// TaxRateRepositoryFacade defines persistence for the tax rate registry.
type TaxRateRepositoryFacade interface {
	SaveTaxRate(ctx context.Context, rate domain.TaxRate) error
	UpdateTaxRate(ctx context.Context, rate domain.TaxRate) error
	FindTaxRateByID(ctx context.Context, clubID, taxRateID string) (*domain.TaxRate, error)
	FindTaxRateByCode(ctx context.Context, clubID, code string) (*domain.TaxRate, error)
	ListTaxRates(ctx context.Context, clubID string) ([]domain.TaxRate, error)
}
