package pgsql

import (
	"context"
	"encoding/json"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type budgetRepository struct {
	BaseRepository
}

var _ portsrepo.BudgetRepositoryFacade = (*budgetRepository)(nil)

const budgetColumns = `
	budget_id, club_id, fiscal_year_id, lineage_id, name, description, version,
	COALESCE(previous_version_id, ''), is_latest_version, status,
	total_budgeted, total_actual, variance, variance_percent, revision_note,
	submitted_by, approved_by, approved_at, rejected_by, rejection_reason, actuals_refreshed_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(
		&b.BudgetID, &b.ClubID, &b.FiscalYearID, &b.LineageID, &b.Name, &b.Description, &b.Version,
		&b.PreviousVersionID, &b.IsLatestVersion, &b.Status,
		&b.TotalBudgeted, &b.TotalActual, &b.Variance, &b.VariancePercent, &b.RevisionNote,
		&b.SubmittedBy, &b.ApprovedBy, &b.ApprovedAt, &b.RejectedBy, &b.RejectionReason, &b.ActualsRefreshedAt,
		&b.CreatedAt, &b.CreatedBy, &b.LastUpdatedAt, &b.LastUpdatedBy,
	)
	return b, err
}

func (r *budgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO budgets (
			budget_id, club_id, fiscal_year_id, lineage_id, name, description, version,
			previous_version_id, is_latest_version, status,
			total_budgeted, total_actual, variance, variance_percent, revision_note,
			submitted_by, approved_by, approved_at, rejected_by, rejection_reason, actuals_refreshed_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);`,
		budget.BudgetID, budget.ClubID, budget.FiscalYearID, budget.LineageID, budget.Name, budget.Description,
		budget.Version, nullIfEmpty(budget.PreviousVersionID), budget.IsLatestVersion, budget.Status,
		budget.TotalBudgeted, budget.TotalActual, budget.Variance, budget.VariancePercent, budget.RevisionNote,
		budget.SubmittedBy, budget.ApprovedBy, budget.ApprovedAt, budget.RejectedBy, budget.RejectionReason,
		budget.ActualsRefreshedAt, budget.CreatedAt, budget.CreatedBy, budget.LastUpdatedAt, budget.LastUpdatedBy,
	)
	if err := queueBudgetLines(batch, budget); err != nil {
		return err
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "insert budget "+budget.BudgetID)
	}
	return nil
}

// UpdateBudget rewrites the header and replaces every line.
func (r *budgetRepository) UpdateBudget(ctx context.Context, budget domain.Budget) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE budgets SET
			name = $3, description = $4, is_latest_version = $5, status = $6,
			total_budgeted = $7, total_actual = $8, variance = $9, variance_percent = $10, revision_note = $11,
			submitted_by = $12, approved_by = $13, approved_at = $14, rejected_by = $15, rejection_reason = $16,
			actuals_refreshed_at = $17, last_updated_at = $18, last_updated_by = $19
		WHERE club_id = $1 AND budget_id = $2;`,
		budget.ClubID, budget.BudgetID, budget.Name, budget.Description, budget.IsLatestVersion, budget.Status,
		budget.TotalBudgeted, budget.TotalActual, budget.Variance, budget.VariancePercent, budget.RevisionNote,
		budget.SubmittedBy, budget.ApprovedBy, budget.ApprovedAt, budget.RejectedBy, budget.RejectionReason,
		budget.ActualsRefreshedAt, budget.LastUpdatedAt, budget.LastUpdatedBy,
	)
	if err := expectOne(tag, err, "update budget "+budget.BudgetID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM budget_lines WHERE budget_id = $1;`, budget.BudgetID)
	if err := queueBudgetLines(batch, budget); err != nil {
		return err
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "replace lines of budget "+budget.BudgetID)
	}
	return nil
}

func queueBudgetLines(batch *pgx.Batch, budget domain.Budget) error {
	query := `
		INSERT INTO budget_lines (
			budget_line_id, budget_id, line_order, account_id, notes, slots,
			total_budgeted, total_actual, variance, variance_percent, is_over_budget
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for i, l := range budget.Lines {
		slots, err := json.Marshal(l.Slots)
		if err != nil {
			return apperrors.NewAppError(500, "failed to encode budget slots", err)
		}
		batch.Queue(query, l.BudgetLineID, budget.BudgetID, i, l.AccountID, l.Notes, string(slots),
			l.TotalBudgeted, l.TotalActual, l.Variance, l.VariancePercent, l.IsOverBudget)
	}
	return nil
}

func (r *budgetRepository) FindBudgetByID(ctx context.Context, clubID, budgetID string) (*domain.Budget, error) {
	b, err := scanBudget(r.db.QueryRow(ctx, `SELECT`+budgetColumns+` FROM budgets WHERE club_id = $1 AND budget_id = $2;`, clubID, budgetID))
	if err != nil {
		return nil, translate(err, "find budget "+budgetID)
	}
	budgets := []domain.Budget{b}
	if err := r.attachLines(ctx, budgets); err != nil {
		return nil, err
	}
	return &budgets[0], nil
}

func (r *budgetRepository) ListVersions(ctx context.Context, clubID, lineageID string) ([]domain.Budget, error) {
	rows, err := r.db.Query(ctx, `SELECT`+budgetColumns+`
		FROM budgets WHERE club_id = $1 AND lineage_id = $2 ORDER BY version;`, clubID, lineageID)
	if err != nil {
		return nil, translate(err, "list budget versions")
	}
	budgets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Budget, error) {
		return scanBudget(row)
	})
	if err != nil {
		return nil, translate(err, "scan budgets")
	}
	if err := r.attachLines(ctx, budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *budgetRepository) attachLines(ctx context.Context, budgets []domain.Budget) error {
	if len(budgets) == 0 {
		return nil
	}
	ids := make([]string, len(budgets))
	index := make(map[string]int, len(budgets))
	for i, b := range budgets {
		ids[i] = b.BudgetID
		index[b.BudgetID] = i
		budgets[i].Lines = []domain.BudgetLine{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT budget_line_id, budget_id, account_id, notes, slots,
		       total_budgeted, total_actual, variance, variance_percent, is_over_budget
		FROM budget_lines WHERE budget_id = ANY($1)
		ORDER BY budget_id, line_order;`, ids)
	if err != nil {
		return translate(err, "query budget lines")
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BudgetLine, error) {
		var (
			l     domain.BudgetLine
			slots []byte
		)
		if err := row.Scan(&l.BudgetLineID, &l.BudgetID, &l.AccountID, &l.Notes, &slots,
			&l.TotalBudgeted, &l.TotalActual, &l.Variance, &l.VariancePercent, &l.IsOverBudget); err != nil {
			return l, err
		}
		return l, json.Unmarshal(slots, &l.Slots)
	})
	if err != nil {
		return translate(err, "scan budget lines")
	}
	for _, l := range lines {
		i := index[l.BudgetID]
		budgets[i].Lines = append(budgets[i].Lines, l)
	}
	return nil
}
