package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// TaxRateSvcFacade manages the tax rates journal lines may reference.
type TaxRateSvcFacade interface {
	CreateTaxRate(ctx context.Context, clubID string, req dto.CreateTaxRateRequest, actor string) (*domain.TaxRate, error)
	GetTaxRate(ctx context.Context, clubID, taxRateID string) (*domain.TaxRate, error)
	ListTaxRates(ctx context.Context, clubID string) ([]domain.TaxRate, error)
	DeactivateTaxRate(ctx context.Context, clubID, taxRateID, actor string) error
}
