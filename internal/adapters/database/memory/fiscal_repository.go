package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type fiscalRepository struct {
	s *store
}

var _ portsrepo.FiscalRepositoryFacade = (*fiscalRepository)(nil)

func (r *fiscalRepository) SaveYear(_ context.Context, year domain.FiscalYear) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.years[year.FiscalYearID]; exists {
			return fmt.Errorf("%w: fiscal year %s", apperrors.ErrDuplicate, year.FiscalYearID)
		}
		for _, p := range year.Periods {
			st.periods[p.FiscalPeriodID] = p
		}
		year.Periods = nil
		st.years[year.FiscalYearID] = year
		return nil
	})
}

func (r *fiscalRepository) UpdateYear(_ context.Context, year domain.FiscalYear) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.years[year.FiscalYearID]
		if !ok || existing.ClubID != year.ClubID {
			return apperrors.ErrNotFound
		}
		year.Periods = nil
		st.years[year.FiscalYearID] = year
		return nil
	})
}

func (r *fiscalRepository) UpdatePeriod(_ context.Context, period domain.FiscalPeriod) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.periods[period.FiscalPeriodID]
		if !ok || existing.ClubID != period.ClubID {
			return apperrors.ErrNotFound
		}
		st.periods[period.FiscalPeriodID] = period
		return nil
	})
}

func (r *fiscalRepository) FindYearByID(_ context.Context, clubID, fiscalYearID string) (*domain.FiscalYear, error) {
	st := r.s.read()
	y, ok := st.years[fiscalYearID]
	if !ok || y.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	y.Periods = periodsOf(st, fiscalYearID)
	return &y, nil
}

func (r *fiscalRepository) ListYears(_ context.Context, clubID string) ([]domain.FiscalYear, error) {
	st := r.s.read()
	years := []domain.FiscalYear{}
	for _, y := range st.years {
		if y.ClubID == clubID {
			y.Periods = periodsOf(st, y.FiscalYearID)
			years = append(years, y)
		}
	}
	sort.Slice(years, func(i, j int) bool { return years[i].StartDate.Before(years[j].StartDate) })
	return years, nil
}

func (r *fiscalRepository) FindPeriodByID(_ context.Context, clubID, fiscalPeriodID string) (*domain.FiscalPeriod, error) {
	p, ok := r.s.read().periods[fiscalPeriodID]
	if !ok || p.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *fiscalRepository) FindPeriodByDate(_ context.Context, clubID string, date time.Time) (*domain.FiscalPeriod, error) {
	for _, p := range r.s.read().periods {
		if p.ClubID == clubID && p.Contains(date) {
			found := p
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fiscalRepository) FindCurrentPeriod(_ context.Context, clubID string) (*domain.FiscalPeriod, error) {
	for _, p := range r.s.read().periods {
		if p.ClubID == clubID && p.Status == domain.PeriodCurrent {
			found := p
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func periodsOf(st *state, fiscalYearID string) []domain.FiscalPeriod {
	periods := []domain.FiscalPeriod{}
	for _, p := range st.periods {
		if p.FiscalYearID == fiscalYearID {
			periods = append(periods, p)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].PeriodNumber < periods[j].PeriodNumber })
	return periods
}
