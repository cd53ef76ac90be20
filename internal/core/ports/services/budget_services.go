package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// BudgetSvcFacade manages versioned budgets and their variance against the ledger.
type BudgetSvcFacade interface {
	CreateBudget(ctx context.Context, clubID string, req dto.CreateBudgetRequest, actor string) (*domain.Budget, error)
	UpdateBudgetLines(ctx context.Context, clubID, budgetID string, req dto.UpdateBudgetLinesRequest, actor string) (*domain.Budget, error)
	SubmitForReview(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error)
	Approve(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error)
	Reject(ctx context.Context, clubID, budgetID, reason, actor string) (*domain.Budget, error)

	// ReviseBudget copies a frozen version into a new DRAFT version and demotes the old one.
	ReviseBudget(ctx context.Context, clubID, budgetID string, req dto.ReviseBudgetRequest, actor string) (*domain.Budget, error)

	// RefreshActuals recomputes actuals from posted ledger activity. It never posts.
	RefreshActuals(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error)

	GetBudget(ctx context.Context, clubID, budgetID string) (*domain.Budget, error)
	ListVersions(ctx context.Context, clubID, budgetID string) ([]domain.Budget, error)
	GetVarianceReport(ctx context.Context, clubID, budgetID string) (*domain.BudgetVarianceReport, error)
}
