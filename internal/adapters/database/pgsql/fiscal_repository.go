package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type fiscalRepository struct {
	BaseRepository
}

var _ portsrepo.FiscalRepositoryFacade = (*fiscalRepository)(nil)

const yearColumns = `
	fiscal_year_id, club_id, name, start_date, end_date, status, allow_posting_to_closed,
	retained_earnings_account_id, COALESCE(closing_entry_id, ''), closed_at, closed_by,
	created_at, created_by, last_updated_at, last_updated_by`

const periodColumns = `
	fiscal_period_id, club_id, fiscal_year_id, period_number, name, start_date, end_date, status,
	total_debits, total_credits, total_revenue, total_expenses, net_income,
	closed_at, closed_by, reopened_at, reopened_by, reopen_reason, locked_at, locked_by,
	created_at, created_by, last_updated_at, last_updated_by`

func scanYear(row pgx.Row) (domain.FiscalYear, error) {
	var y domain.FiscalYear
	err := row.Scan(
		&y.FiscalYearID, &y.ClubID, &y.Name, &y.StartDate, &y.EndDate, &y.Status, &y.AllowPostingToClosed,
		&y.RetainedEarningsAccountID, &y.ClosingEntryID, &y.ClosedAt, &y.ClosedBy,
		&y.CreatedAt, &y.CreatedBy, &y.LastUpdatedAt, &y.LastUpdatedBy,
	)
	return y, err
}

func scanPeriod(row pgx.Row) (domain.FiscalPeriod, error) {
	var p domain.FiscalPeriod
	err := row.Scan(
		&p.FiscalPeriodID, &p.ClubID, &p.FiscalYearID, &p.PeriodNumber, &p.Name, &p.StartDate, &p.EndDate, &p.Status,
		&p.TotalDebits, &p.TotalCredits, &p.TotalRevenue, &p.TotalExpenses, &p.NetIncome,
		&p.ClosedAt, &p.ClosedBy, &p.ReopenedAt, &p.ReopenedBy, &p.ReopenReason, &p.LockedAt, &p.LockedBy,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy,
	)
	return p, err
}

// SaveYear inserts the year header and its periods in one batch.
func (r *fiscalRepository) SaveYear(ctx context.Context, year domain.FiscalYear) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO fiscal_years (
			fiscal_year_id, club_id, name, start_date, end_date, status, allow_posting_to_closed,
			retained_earnings_account_id, closing_entry_id, closed_at, closed_by,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
		year.FiscalYearID, year.ClubID, year.Name, year.StartDate, year.EndDate, year.Status,
		year.AllowPostingToClosed, year.RetainedEarningsAccountID, nullIfEmpty(year.ClosingEntryID),
		year.ClosedAt, year.ClosedBy, year.CreatedAt, year.CreatedBy, year.LastUpdatedAt, year.LastUpdatedBy,
	)
	for _, p := range year.Periods {
		batch.Queue(`
			INSERT INTO fiscal_periods (`+periodColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);`,
			p.FiscalPeriodID, p.ClubID, p.FiscalYearID, p.PeriodNumber, p.Name, p.StartDate, p.EndDate, p.Status,
			p.TotalDebits, p.TotalCredits, p.TotalRevenue, p.TotalExpenses, p.NetIncome,
			p.ClosedAt, p.ClosedBy, p.ReopenedAt, p.ReopenedBy, p.ReopenReason, p.LockedAt, p.LockedBy,
			p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy,
		)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "insert fiscal year "+year.FiscalYearID)
	}
	return nil
}

func (r *fiscalRepository) UpdateYear(ctx context.Context, year domain.FiscalYear) error {
	query := `
		UPDATE fiscal_years SET
			name = $3, status = $4, allow_posting_to_closed = $5, closing_entry_id = $6,
			closed_at = $7, closed_by = $8, last_updated_at = $9, last_updated_by = $10
		WHERE club_id = $1 AND fiscal_year_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, year.ClubID, year.FiscalYearID, year.Name, year.Status,
		year.AllowPostingToClosed, nullIfEmpty(year.ClosingEntryID), year.ClosedAt, year.ClosedBy,
		year.LastUpdatedAt, year.LastUpdatedBy)
	return expectOne(tag, err, "update fiscal year "+year.FiscalYearID)
}

func (r *fiscalRepository) UpdatePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `
		UPDATE fiscal_periods SET
			name = $3, status = $4,
			total_debits = $5, total_credits = $6, total_revenue = $7, total_expenses = $8, net_income = $9,
			closed_at = $10, closed_by = $11, reopened_at = $12, reopened_by = $13, reopen_reason = $14,
			locked_at = $15, locked_by = $16, last_updated_at = $17, last_updated_by = $18
		WHERE club_id = $1 AND fiscal_period_id = $2;
	`
	p := period
	tag, err := r.db.Exec(ctx, query, p.ClubID, p.FiscalPeriodID, p.Name, p.Status,
		p.TotalDebits, p.TotalCredits, p.TotalRevenue, p.TotalExpenses, p.NetIncome,
		p.ClosedAt, p.ClosedBy, p.ReopenedAt, p.ReopenedBy, p.ReopenReason,
		p.LockedAt, p.LockedBy, p.LastUpdatedAt, p.LastUpdatedBy)
	return expectOne(tag, err, "update fiscal period "+p.FiscalPeriodID)
}

func (r *fiscalRepository) FindYearByID(ctx context.Context, clubID, fiscalYearID string) (*domain.FiscalYear, error) {
	query := `SELECT` + yearColumns + ` FROM fiscal_years WHERE club_id = $1 AND fiscal_year_id = $2;`
	y, err := scanYear(r.db.QueryRow(ctx, query, clubID, fiscalYearID))
	if err != nil {
		return nil, translate(err, "find fiscal year "+fiscalYearID)
	}
	periods, err := r.queryPeriods(ctx, `SELECT`+periodColumns+`
		FROM fiscal_periods WHERE club_id = $1 AND fiscal_year_id = $2 ORDER BY period_number;`,
		clubID, fiscalYearID)
	if err != nil {
		return nil, err
	}
	y.Periods = periods
	return &y, nil
}

func (r *fiscalRepository) ListYears(ctx context.Context, clubID string) ([]domain.FiscalYear, error) {
	rows, err := r.db.Query(ctx, `SELECT`+yearColumns+` FROM fiscal_years WHERE club_id = $1 ORDER BY start_date;`, clubID)
	if err != nil {
		return nil, translate(err, "list fiscal years")
	}
	years, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FiscalYear, error) {
		return scanYear(row)
	})
	if err != nil {
		return nil, translate(err, "scan fiscal years")
	}

	periods, err := r.queryPeriods(ctx, `SELECT`+periodColumns+`
		FROM fiscal_periods WHERE club_id = $1 ORDER BY fiscal_year_id, period_number;`, clubID)
	if err != nil {
		return nil, err
	}
	byYear := make(map[string][]domain.FiscalPeriod, len(years))
	for _, p := range periods {
		byYear[p.FiscalYearID] = append(byYear[p.FiscalYearID], p)
	}
	for i := range years {
		years[i].Periods = byYear[years[i].FiscalYearID]
		if years[i].Periods == nil {
			years[i].Periods = []domain.FiscalPeriod{}
		}
	}
	return years, nil
}

func (r *fiscalRepository) FindPeriodByID(ctx context.Context, clubID, fiscalPeriodID string) (*domain.FiscalPeriod, error) {
	query := `SELECT` + periodColumns + ` FROM fiscal_periods WHERE club_id = $1 AND fiscal_period_id = $2;`
	p, err := scanPeriod(r.db.QueryRow(ctx, query, clubID, fiscalPeriodID))
	if err != nil {
		return nil, translate(err, "find fiscal period "+fiscalPeriodID)
	}
	return &p, nil
}

func (r *fiscalRepository) FindPeriodByDate(ctx context.Context, clubID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `SELECT` + periodColumns + `
		FROM fiscal_periods WHERE club_id = $1 AND start_date <= $2 AND end_date >= $2
		LIMIT 1;`
	p, err := scanPeriod(r.db.QueryRow(ctx, query, clubID, domain.DateOnly(date)))
	if err != nil {
		return nil, translate(err, "find fiscal period by date")
	}
	return &p, nil
}

func (r *fiscalRepository) FindCurrentPeriod(ctx context.Context, clubID string) (*domain.FiscalPeriod, error) {
	query := `SELECT` + periodColumns + ` FROM fiscal_periods WHERE club_id = $1 AND status = $2;`
	p, err := scanPeriod(r.db.QueryRow(ctx, query, clubID, domain.PeriodCurrent))
	if err != nil {
		return nil, translate(err, "find current fiscal period")
	}
	return &p, nil
}

func (r *fiscalRepository) queryPeriods(ctx context.Context, query string, args ...any) ([]domain.FiscalPeriod, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query fiscal periods")
	}
	periods, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FiscalPeriod, error) {
		return scanPeriod(row)
	})
	if err != nil {
		return nil, translate(err, "scan fiscal periods")
	}
	return periods, nil
}
