package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// DefaultBudgetOverThreshold is the variance percentage above which a line is over budget.
var DefaultBudgetOverThreshold = decimal.Zero

type budgetService struct {
	BaseService
	overThreshold decimal.Decimal
}

// NewBudgetService creates the budget manager. A line is flagged over budget when its
// variance percentage exceeds overThreshold.
func NewBudgetService(base BaseService, overThreshold decimal.Decimal) portssvc.BudgetSvcFacade {
	return &budgetService{BaseService: base, overThreshold: overThreshold}
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

func (s *budgetService) GetBudget(ctx context.Context, clubID, budgetID string) (*domain.Budget, error) {
	return s.DB.Budgets().FindBudgetByID(ctx, clubID, budgetID)
}

func (s *budgetService) ListVersions(ctx context.Context, clubID, budgetID string) ([]domain.Budget, error) {
	budget, err := s.DB.Budgets().FindBudgetByID(ctx, clubID, budgetID)
	if err != nil {
		return nil, err
	}
	versions, err := s.DB.Budgets().ListVersions(ctx, clubID, budget.LineageID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budget versions", slog.String("lineage_id", budget.LineageID))
		return nil, fmt.Errorf("failed to list budget versions: %w", err)
	}
	return versions, nil
}

func (s *budgetService) CreateBudget(ctx context.Context, clubID string, req dto.CreateBudgetRequest, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var created *domain.Budget
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, req.FiscalYearID)
		if err != nil {
			return err
		}
		id := newID()
		lines, err := buildBudgetLines(ctx, tx, clubID, id, year, req.Lines)
		if err != nil {
			return err
		}
		budget := domain.Budget{
			BudgetID:        id,
			ClubID:          clubID,
			FiscalYearID:    year.FiscalYearID,
			LineageID:       id,
			Name:            req.Name,
			Description:     req.Description,
			Version:         1,
			IsLatestVersion: true,
			Status:          domain.BudgetDraft,
			Lines:           lines,
			AuditFields:     domain.NewAuditFields(actor, s.now()),
		}
		s.recomputeTotals(&budget)
		if err := tx.Budgets().SaveBudget(ctx, budget); err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}
		created = &budget
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityBudget,
			EntityID:   budget.BudgetID,
			Action:     domain.ActionCreate,
			After:      budget,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create budget", slog.String("fiscal_year_id", req.FiscalYearID))
		return nil, err
	}
	s.LogInfo(ctx, "Budget created", slog.String("budget_id", created.BudgetID), slog.String("total_budgeted", created.TotalBudgeted.StringFixed(accounting.AmountPlaces)))
	return created, nil
}

// buildBudgetLines turns requested lines into budget lines with one slot per period of year.
func buildBudgetLines(ctx context.Context, tx portsrepo.Store, clubID, budgetID string, year *domain.FiscalYear, reqs []dto.BudgetLineRequest) ([]domain.BudgetLine, error) {
	ids := make([]string, 0, len(reqs))
	seen := map[string]struct{}{}
	for _, r := range reqs {
		if _, dup := seen[r.AccountID]; dup {
			return nil, fmt.Errorf("%w: account %s appears on more than one budget line", apperrors.ErrValidation, r.AccountID)
		}
		seen[r.AccountID] = struct{}{}
		ids = append(ids, r.AccountID)
	}
	accounts, err := tx.Accounts().FindAccountsByIDs(ctx, clubID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	lines := make([]domain.BudgetLine, 0, len(reqs))
	for _, r := range reqs {
		acc, ok := accounts[r.AccountID]
		if !ok || acc.IsHeader {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, r.AccountID)
		}
		if len(r.Amounts) != len(year.Periods) {
			return nil, fmt.Errorf("%w: account %s has %d amounts, fiscal year %s has %d periods",
				apperrors.ErrValidation, acc.Code, len(r.Amounts), year.Name, len(year.Periods))
		}
		slots := make([]domain.BudgetSlot, len(r.Amounts))
		for i, amt := range r.Amounts {
			if !accounting.HasAmountPrecision(amt) {
				return nil, fmt.Errorf("%w: account %s period %d amount exceeds %d decimal places",
					apperrors.ErrValidation, acc.Code, i+1, accounting.AmountPlaces)
			}
			slots[i] = domain.BudgetSlot{PeriodNumber: year.Periods[i].PeriodNumber, Budgeted: amt}
		}
		lines = append(lines, domain.BudgetLine{
			BudgetLineID: newID(),
			BudgetID:     budgetID,
			AccountID:    r.AccountID,
			Notes:        r.Notes,
			Slots:        slots,
		})
	}
	return lines, nil
}

// recomputeTotals derives every line and header figure from the slots.
func (s *budgetService) recomputeTotals(b *domain.Budget) {
	b.TotalBudgeted, b.TotalActual = decimal.Zero, decimal.Zero
	for i := range b.Lines {
		l := &b.Lines[i]
		l.TotalBudgeted, l.TotalActual = decimal.Zero, decimal.Zero
		for _, slot := range l.Slots {
			l.TotalBudgeted = l.TotalBudgeted.Add(slot.Budgeted)
			l.TotalActual = l.TotalActual.Add(slot.Actual)
		}
		l.Variance = l.TotalActual.Sub(l.TotalBudgeted)
		l.VariancePercent = accounting.VariancePercent(l.Variance, l.TotalBudgeted)
		l.IsOverBudget = s.isOverBudget(l.TotalBudgeted, l.TotalActual, l.VariancePercent)
		b.TotalBudgeted = b.TotalBudgeted.Add(l.TotalBudgeted)
		b.TotalActual = b.TotalActual.Add(l.TotalActual)
	}
	b.Variance = b.TotalActual.Sub(b.TotalBudgeted)
	b.VariancePercent = accounting.VariancePercent(b.Variance, b.TotalBudgeted)
}

func (s *budgetService) isOverBudget(budgeted, actual, variancePercent decimal.Decimal) bool {
	if budgeted.IsZero() {
		return actual.IsPositive()
	}
	return variancePercent.GreaterThan(s.overThreshold)
}

func (s *budgetService) UpdateBudgetLines(ctx context.Context, clubID, budgetID string, req dto.UpdateBudgetLinesRequest, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, budgetID, actor, domain.ActionUpdate, "", func(ctx context.Context, tx portsrepo.Store, b *domain.Budget) error {
		if b.Status != domain.BudgetDraft {
			return fmt.Errorf("%w: budget %s is %s, only drafts can be edited", apperrors.ErrInvalidTransition, b.Name, b.Status)
		}
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, b.FiscalYearID)
		if err != nil {
			return err
		}
		lines, err := buildBudgetLines(ctx, tx, clubID, b.BudgetID, year, req.Lines)
		if err != nil {
			return err
		}
		b.Lines = lines
		b.ActualsRefreshedAt = nil
		s.recomputeTotals(b)
		return nil
	})
}

func (s *budgetService) SubmitForReview(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, budgetID, actor, domain.ActionSubmit, "", func(_ context.Context, _ portsrepo.Store, b *domain.Budget) error {
		if b.Status != domain.BudgetDraft {
			return fmt.Errorf("%w: budget %s is %s", apperrors.ErrInvalidTransition, b.Name, b.Status)
		}
		b.Status = domain.BudgetPendingReview
		b.SubmittedBy = actor
		return nil
	})
}

func (s *budgetService) Approve(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, budgetID, actor, domain.ActionApprove, "", func(_ context.Context, _ portsrepo.Store, b *domain.Budget) error {
		if b.Status != domain.BudgetPendingReview {
			return fmt.Errorf("%w: budget %s is %s, only budgets pending review can be approved", apperrors.ErrInvalidTransition, b.Name, b.Status)
		}
		now := s.now()
		b.Status = domain.BudgetApproved
		b.ApprovedBy = actor
		b.ApprovedAt = &now
		return nil
	})
}

func (s *budgetService) Reject(ctx context.Context, clubID, budgetID, reason, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(dto.RejectBudgetRequest{Reason: reason}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, budgetID, actor, domain.ActionReject, reason, func(_ context.Context, _ portsrepo.Store, b *domain.Budget) error {
		if b.Status != domain.BudgetPendingReview {
			return fmt.Errorf("%w: budget %s is %s", apperrors.ErrInvalidTransition, b.Name, b.Status)
		}
		b.Status = domain.BudgetRejected
		b.RejectedBy = actor
		b.RejectionReason = reason
		return nil
	})
}

// mutate loads a budget, applies change and stores it with one audit record.
func (s *budgetService) mutate(ctx context.Context, clubID, budgetID, actor string, action domain.AuditAction, reason string,
	change func(ctx context.Context, tx portsrepo.Store, b *domain.Budget) error) (*domain.Budget, error) {
	var updated *domain.Budget
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		b, err := tx.Budgets().FindBudgetByID(ctx, clubID, budgetID)
		if err != nil {
			return err
		}
		before := cloneBudgetForAudit(*b)
		if err := change(ctx, tx, b); err != nil {
			return err
		}
		b.Touch(actor, s.now())
		if err := tx.Budgets().UpdateBudget(ctx, *b); err != nil {
			return fmt.Errorf("failed to update budget: %w", err)
		}
		updated = b
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityBudget,
			EntityID:   b.BudgetID,
			Action:     action,
			Before:     before,
			After:      *b,
			Reason:     reason,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update budget", slog.String("budget_id", budgetID), slog.String("action", string(action)))
		return nil, err
	}
	s.LogDebug(ctx, "Budget updated", slog.String("budget_id", budgetID), slog.String("action", string(action)), slog.String("status", string(updated.Status)))
	return updated, nil
}

func cloneBudgetForAudit(b domain.Budget) domain.Budget {
	lines := make([]domain.BudgetLine, len(b.Lines))
	for i, l := range b.Lines {
		l.Slots = append([]domain.BudgetSlot(nil), l.Slots...)
		lines[i] = l
	}
	b.Lines = lines
	return b
}

func (s *budgetService) ReviseBudget(ctx context.Context, clubID, budgetID string, req dto.ReviseBudgetRequest, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var revised *domain.Budget
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		prior, err := tx.Budgets().FindBudgetByID(ctx, clubID, budgetID)
		if err != nil {
			return err
		}
		if !prior.IsLatestVersion {
			return fmt.Errorf("%w: budget %s version %d has already been revised", apperrors.ErrInvalidTransition, prior.Name, prior.Version)
		}
		if prior.Status != domain.BudgetApproved && prior.Status != domain.BudgetRejected {
			return fmt.Errorf("%w: budget %s is %s, only approved or rejected budgets can be revised", apperrors.ErrInvalidTransition, prior.Name, prior.Status)
		}

		now := s.now()
		next := cloneBudgetForAudit(*prior)
		next.BudgetID = newID()
		next.Version = prior.Version + 1
		next.PreviousVersionID = prior.BudgetID
		next.IsLatestVersion = true
		next.Status = domain.BudgetDraft
		next.RevisionNote = req.Note
		next.SubmittedBy, next.ApprovedBy, next.RejectedBy, next.RejectionReason = "", "", "", ""
		next.ApprovedAt = nil
		next.AuditFields = domain.NewAuditFields(actor, now)
		for i := range next.Lines {
			next.Lines[i].BudgetLineID = newID()
			next.Lines[i].BudgetID = next.BudgetID
		}
		if err := tx.Budgets().SaveBudget(ctx, next); err != nil {
			return fmt.Errorf("failed to save budget version: %w", err)
		}

		prior.IsLatestVersion = false
		prior.Touch(actor, now)
		if err := tx.Budgets().UpdateBudget(ctx, *prior); err != nil {
			return fmt.Errorf("failed to demote budget version: %w", err)
		}

		revised = &next
		parentID, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityBudget,
			EntityID:   next.BudgetID,
			Action:     domain.ActionRevise,
			After:      next,
			Reason:     req.Note,
		})
		if err != nil {
			return err
		}
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityBudget,
			EntityID:   prior.BudgetID,
			Action:     domain.ActionUpdate,
			Before:     map[string]bool{"isLatestVersion": true},
			After:      map[string]bool{"isLatestVersion": false},
			ParentID:   parentID,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to revise budget", slog.String("budget_id", budgetID))
		return nil, err
	}
	s.LogInfo(ctx, "Budget revised", slog.String("budget_id", revised.BudgetID), slog.Int("version", revised.Version))
	return revised, nil
}

func (s *budgetService) RefreshActuals(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, budgetID, actor, domain.ActionRefresh, "", func(ctx context.Context, tx portsrepo.Store, b *domain.Budget) error {
		if !b.IsLatestVersion {
			return fmt.Errorf("%w: budget %s version %d has been superseded", apperrors.ErrInvalidTransition, b.Name, b.Version)
		}
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, b.FiscalYearID)
		if err != nil {
			return err
		}
		actuals, err := periodActuals(ctx, tx, clubID, year, budgetAccountIDs(b))
		if err != nil {
			return err
		}
		for i := range b.Lines {
			l := &b.Lines[i]
			for j := range l.Slots {
				l.Slots[j].Actual = actuals[l.AccountID][l.Slots[j].PeriodNumber]
			}
		}
		s.recomputeTotals(b)
		now := s.now()
		b.ActualsRefreshedAt = &now
		return nil
	})
}

func budgetAccountIDs(b *domain.Budget) []string {
	ids := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		ids[i] = l.AccountID
	}
	return ids
}

// periodActuals returns posted activity per account and period number, in each account's
// normal-side convention.
func periodActuals(ctx context.Context, tx portsrepo.Store, clubID string, year *domain.FiscalYear, accountIDs []string) (map[string]map[int]decimal.Decimal, error) {
	accounts, err := tx.Accounts().FindAccountsByIDs(ctx, clubID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	from, to := year.StartDate, year.EndDate
	lines, err := tx.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{AccountIDs: accountIDs, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger lines: %w", err)
	}

	out := make(map[string]map[int]decimal.Decimal, len(accountIDs))
	for _, id := range accountIDs {
		out[id] = map[int]decimal.Decimal{}
	}
	for _, l := range lines {
		// The year-end closing entry is bookkeeping, not activity.
		if l.Source == domain.SourceYearClose {
			continue
		}
		acc, ok := accounts[l.AccountID]
		if !ok {
			continue
		}
		number := periodNumberOf(year, l.EntryDate)
		if number == 0 {
			continue
		}
		amt, err := accounting.SignedAmount(l.JournalEntryLine, acc.NormalSide)
		if err != nil {
			return nil, err
		}
		out[l.AccountID][number] = out[l.AccountID][number].Add(amt)
	}
	return out, nil
}

func periodNumberOf(year *domain.FiscalYear, date time.Time) int {
	for _, p := range year.Periods {
		if p.Contains(date) {
			return p.PeriodNumber
		}
	}
	return 0
}

func (s *budgetService) GetVarianceReport(ctx context.Context, clubID, budgetID string) (*domain.BudgetVarianceReport, error) {
	b, err := s.DB.Budgets().FindBudgetByID(ctx, clubID, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BudgetApproved {
		return nil, fmt.Errorf("%w: budget %s is %s, only approved budgets report variance", apperrors.ErrInvalidTransition, b.Name, b.Status)
	}
	accounts, err := s.DB.Accounts().FindAccountsByIDs(ctx, clubID, budgetAccountIDs(b))
	if err != nil {
		s.LogError(ctx, err, "Failed to load budget accounts", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	report := &domain.BudgetVarianceReport{
		BudgetID:           b.BudgetID,
		FiscalYearID:       b.FiscalYearID,
		Version:            b.Version,
		TotalBudgeted:      b.TotalBudgeted,
		TotalActual:        b.TotalActual,
		Variance:           b.Variance,
		VariancePercent:    b.VariancePercent,
		ActualsRefreshedAt: b.ActualsRefreshedAt,
		Lines:              make([]domain.BudgetVarianceLine, 0, len(b.Lines)),
	}
	for _, l := range b.Lines {
		acc := accounts[l.AccountID]
		if l.IsOverBudget {
			report.OverBudgetAccounts++
		}
		report.Lines = append(report.Lines, domain.BudgetVarianceLine{
			AccountID:       l.AccountID,
			AccountCode:     acc.Code,
			AccountName:     acc.Name,
			Budgeted:        l.TotalBudgeted,
			Actual:          l.TotalActual,
			Variance:        l.Variance,
			VariancePercent: l.VariancePercent,
			IsOverBudget:    l.IsOverBudget,
		})
	}
	return report, nil
}
