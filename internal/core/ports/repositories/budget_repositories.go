package repositories

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// BudgetRepositoryFacade defines persistence for budget versions.
type BudgetRepositoryFacade interface {
	// SaveBudget persists a new version with its lines.
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// UpdateBudget replaces the header and lines of an existing version.
	UpdateBudget(ctx context.Context, budget domain.Budget) error

	FindBudgetByID(ctx context.Context, clubID, budgetID string) (*domain.Budget, error)

	// ListVersions returns every version of a lineage ordered by version number.
	ListVersions(ctx context.Context, clubID, lineageID string) ([]domain.Budget, error)
}
