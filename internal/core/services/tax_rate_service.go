package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type taxRateService struct {
	BaseService
}

// NewTaxRateService creates the tax rate registry.
func NewTaxRateService(base BaseService) portssvc.TaxRateSvcFacade {
	return &taxRateService{BaseService: base}
}

var _ portssvc.TaxRateSvcFacade = (*taxRateService)(nil)

func (s *taxRateService) CreateTaxRate(ctx context.Context, clubID string, req dto.CreateTaxRateRequest, actor string) (*domain.TaxRate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.Rate.IsNegative() || req.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: rate must be between 0 and 1", apperrors.ErrValidation)
	}

	var created *domain.TaxRate
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		if _, err := tx.TaxRates().FindTaxRateByCode(ctx, clubID, req.Code); err == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCode, req.Code)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to check tax rate code: %w", err)
		}
		rate := domain.TaxRate{
			TaxRateID:   newID(),
			ClubID:      clubID,
			Code:        req.Code,
			Name:        req.Name,
			Rate:        req.Rate.Round(accounting.RatePlaces),
			IsActive:    true,
			AuditFields: domain.NewAuditFields(actor, s.now()),
		}
		if err := tx.TaxRates().SaveTaxRate(ctx, rate); err != nil {
			return fmt.Errorf("failed to save tax rate: %w", err)
		}
		created = &rate
		_, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityTaxRate,
			EntityID:   rate.TaxRateID,
			Action:     domain.ActionCreate,
			After:      rate,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create tax rate", slog.String("code", req.Code))
		return nil, err
	}
	return created, nil
}

func (s *taxRateService) GetTaxRate(ctx context.Context, clubID, taxRateID string) (*domain.TaxRate, error) {
	return s.DB.TaxRates().FindTaxRateByID(ctx, clubID, taxRateID)
}

func (s *taxRateService) ListTaxRates(ctx context.Context, clubID string) ([]domain.TaxRate, error) {
	rates, err := s.DB.TaxRates().ListTaxRates(ctx, clubID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list tax rates", slog.String("club_id", clubID))
		return nil, fmt.Errorf("failed to list tax rates: %w", err)
	}
	return rates, nil
}

func (s *taxRateService) DeactivateTaxRate(ctx context.Context, clubID, taxRateID, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		rate, err := tx.TaxRates().FindTaxRateByID(ctx, clubID, taxRateID)
		if err != nil {
			return err
		}
		if !rate.IsActive {
			return fmt.Errorf("%w: tax rate %s is already inactive", apperrors.ErrInvalidTransition, rate.Code)
		}
		before := *rate
		rate.IsActive = false
		rate.Touch(actor, s.now())
		if err := tx.TaxRates().UpdateTaxRate(ctx, *rate); err != nil {
			return fmt.Errorf("failed to update tax rate: %w", err)
		}
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityTaxRate,
			EntityID:   rate.TaxRateID,
			Action:     domain.ActionDeactivate,
			Before:     before,
			After:      *rate,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to deactivate tax rate", slog.String("tax_rate_id", taxRateID))
	}
	return err
}
