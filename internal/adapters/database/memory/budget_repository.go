package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type budgetRepository struct {
	s *store
}

var _ portsrepo.BudgetRepositoryFacade = (*budgetRepository)(nil)

func (r *budgetRepository) SaveBudget(_ context.Context, budget domain.Budget) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.budgets[budget.BudgetID]; exists {
			return fmt.Errorf("%w: budget %s", apperrors.ErrDuplicate, budget.BudgetID)
		}
		st.budgets[budget.BudgetID] = cloneBudget(budget)
		return nil
	})
}

func (r *budgetRepository) UpdateBudget(_ context.Context, budget domain.Budget) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.budgets[budget.BudgetID]
		if !ok || existing.ClubID != budget.ClubID {
			return apperrors.ErrNotFound
		}
		st.budgets[budget.BudgetID] = cloneBudget(budget)
		return nil
	})
}

func (r *budgetRepository) FindBudgetByID(_ context.Context, clubID, budgetID string) (*domain.Budget, error) {
	b, ok := r.s.read().budgets[budgetID]
	if !ok || b.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	b = cloneBudget(b)
	return &b, nil
}

func (r *budgetRepository) ListVersions(_ context.Context, clubID, lineageID string) ([]domain.Budget, error) {
	versions := []domain.Budget{}
	for _, b := range r.s.read().budgets {
		if b.ClubID == clubID && b.LineageID == lineageID {
			versions = append(versions, cloneBudget(b))
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}
