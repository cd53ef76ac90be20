package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type taxRateRepository struct {
	s *store
}

var _ portsrepo.TaxRateRepositoryFacade = (*taxRateRepository)(nil)

func (r *taxRateRepository) SaveTaxRate(_ context.Context, rate domain.TaxRate) error {
	return r.s.write(func(st *state) error {
		for _, t := range st.taxRates {
			if t.ClubID == rate.ClubID && t.Code == rate.Code {
				return fmt.Errorf("%w: tax rate code %s", apperrors.ErrDuplicateCode, rate.Code)
			}
		}
		st.taxRates[rate.TaxRateID] = rate
		return nil
	})
}

func (r *taxRateRepository) UpdateTaxRate(_ context.Context, rate domain.TaxRate) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.taxRates[rate.TaxRateID]
		if !ok || existing.ClubID != rate.ClubID {
			return apperrors.ErrNotFound
		}
		st.taxRates[rate.TaxRateID] = rate
		return nil
	})
}

func (r *taxRateRepository) FindTaxRateByID(_ context.Context, clubID, taxRateID string) (*domain.TaxRate, error) {
	t, ok := r.s.read().taxRates[taxRateID]
	if !ok || t.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r *taxRateRepository) FindTaxRateByCode(_ context.Context, clubID, code string) (*domain.TaxRate, error) {
	for _, t := range r.s.read().taxRates {
		if t.ClubID == clubID && t.Code == code {
			found := t
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *taxRateRepository) ListTaxRates(_ context.Context, clubID string) ([]domain.TaxRate, error) {
	rates := []domain.TaxRate{}
	for _, t := range r.s.read().taxRates {
		if t.ClubID == clubID {
			rates = append(rates, t)
		}
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Code < rates[j].Code })
	return rates, nil
}
