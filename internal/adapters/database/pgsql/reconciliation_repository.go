package pgsql

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type reconciliationRepository struct {
	BaseRepository
}

var _ portsrepo.ReconciliationRepositoryFacade = (*reconciliationRepository)(nil)

const reconciliationColumns = `
	reconciliation_id, club_id, account_id, period_start, period_end,
	opening_balance, closing_balance, book_closing_balance, adjusted_book_balance, difference,
	status, completed_at, completed_by, created_at, created_by, last_updated_at, last_updated_by`

func scanReconciliation(row pgx.Row) (domain.BankReconciliation, error) {
	var r domain.BankReconciliation
	err := row.Scan(
		&r.ReconciliationID, &r.ClubID, &r.AccountID, &r.PeriodStart, &r.PeriodEnd,
		&r.OpeningBalance, &r.ClosingBalance, &r.BookClosingBalance, &r.AdjustedBookBalance, &r.Difference,
		&r.Status, &r.CompletedAt, &r.CompletedBy, &r.CreatedAt, &r.CreatedBy, &r.LastUpdatedAt, &r.LastUpdatedBy,
	)
	return r, err
}

func (r *reconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.BankReconciliation) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO bank_reconciliations (`+reconciliationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);`,
		rec.ReconciliationID, rec.ClubID, rec.AccountID, rec.PeriodStart, rec.PeriodEnd,
		rec.OpeningBalance, rec.ClosingBalance, rec.BookClosingBalance, rec.AdjustedBookBalance, rec.Difference,
		rec.Status, rec.CompletedAt, rec.CompletedBy, rec.CreatedAt, rec.CreatedBy, rec.LastUpdatedAt, rec.LastUpdatedBy,
	)
	queueReconciliationLines(batch, rec)
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "insert reconciliation "+rec.ReconciliationID)
	}
	return nil
}

// UpdateReconciliation rewrites the header and replaces every line.
func (r *reconciliationRepository) UpdateReconciliation(ctx context.Context, rec domain.BankReconciliation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bank_reconciliations SET
			book_closing_balance = $3, adjusted_book_balance = $4, difference = $5, status = $6,
			completed_at = $7, completed_by = $8, last_updated_at = $9, last_updated_by = $10
		WHERE club_id = $1 AND reconciliation_id = $2;`,
		rec.ClubID, rec.ReconciliationID, rec.BookClosingBalance, rec.AdjustedBookBalance, rec.Difference,
		rec.Status, rec.CompletedAt, rec.CompletedBy, rec.LastUpdatedAt, rec.LastUpdatedBy,
	)
	if err := expectOne(tag, err, "update reconciliation "+rec.ReconciliationID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM bank_reconciliation_lines WHERE reconciliation_id = $1;`, rec.ReconciliationID)
	queueReconciliationLines(batch, rec)
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "replace lines of reconciliation "+rec.ReconciliationID)
	}
	return nil
}

func queueReconciliationLines(batch *pgx.Batch, rec domain.BankReconciliation) {
	query := `
		INSERT INTO bank_reconciliation_lines (
			line_id, reconciliation_id, line_order, source, transaction_date, description, reference, amount,
			journal_entry_id, journal_line_id, matched_line_id, match_type, match_confidence,
			is_bank_only_item, is_outstanding, is_reconciled, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	for i, l := range rec.Lines {
		batch.Queue(query, l.LineID, rec.ReconciliationID, i, l.Source, l.TransactionDate, l.Description,
			l.Reference, l.Amount, l.JournalEntryID, l.JournalLineID, l.MatchedLineID, l.MatchType,
			l.MatchConfidence, l.IsBankOnlyItem, l.IsOutstanding, l.IsReconciled, l.Notes)
	}
}

func (r *reconciliationRepository) FindReconciliationByID(ctx context.Context, clubID, reconciliationID string) (*domain.BankReconciliation, error) {
	rec, err := scanReconciliation(r.db.QueryRow(ctx, `SELECT`+reconciliationColumns+`
		FROM bank_reconciliations WHERE club_id = $1 AND reconciliation_id = $2;`, clubID, reconciliationID))
	if err != nil {
		return nil, translate(err, "find reconciliation "+reconciliationID)
	}
	recs := []domain.BankReconciliation{rec}
	if err := r.attachLines(ctx, recs); err != nil {
		return nil, err
	}
	return &recs[0], nil
}

func (r *reconciliationRepository) ListReconciliations(ctx context.Context, clubID, accountID string, statuses []domain.ReconciliationStatus) ([]domain.BankReconciliation, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	rows, err := r.db.Query(ctx, `SELECT`+reconciliationColumns+`
		FROM bank_reconciliations
		WHERE club_id = $1 AND account_id = $2
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		ORDER BY period_start;`, clubID, accountID, names)
	if err != nil {
		return nil, translate(err, "list reconciliations")
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BankReconciliation, error) {
		return scanReconciliation(row)
	})
	if err != nil {
		return nil, translate(err, "scan reconciliations")
	}
	if err := r.attachLines(ctx, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *reconciliationRepository) ReconciledJournalLineIDs(ctx context.Context, clubID, accountID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.journal_line_id
		FROM bank_reconciliation_lines l
		JOIN bank_reconciliations r ON r.reconciliation_id = l.reconciliation_id
		WHERE r.club_id = $1 AND r.account_id = $2 AND r.status = $3
		  AND l.source = $4 AND l.is_reconciled;`,
		clubID, accountID, domain.ReconciliationCompleted, domain.SourceBook)
	if err != nil {
		return nil, translate(err, "query reconciled journal lines")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translate(err, "scan reconciled journal lines")
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *reconciliationRepository) attachLines(ctx context.Context, recs []domain.BankReconciliation) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, len(recs))
	index := make(map[string]int, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ReconciliationID
		index[rec.ReconciliationID] = i
		recs[i].Lines = []domain.BankReconciliationLine{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT line_id, reconciliation_id, source, transaction_date, description, reference, amount,
		       journal_entry_id, journal_line_id, matched_line_id, match_type, match_confidence,
		       is_bank_only_item, is_outstanding, is_reconciled, notes
		FROM bank_reconciliation_lines WHERE reconciliation_id = ANY($1)
		ORDER BY reconciliation_id, line_order;`, ids)
	if err != nil {
		return translate(err, "query reconciliation lines")
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BankReconciliationLine, error) {
		var l domain.BankReconciliationLine
		err := row.Scan(&l.LineID, &l.ReconciliationID, &l.Source, &l.TransactionDate, &l.Description,
			&l.Reference, &l.Amount, &l.JournalEntryID, &l.JournalLineID, &l.MatchedLineID, &l.MatchType,
			&l.MatchConfidence, &l.IsBankOnlyItem, &l.IsOutstanding, &l.IsReconciled, &l.Notes)
		return l, err
	})
	if err != nil {
		return translate(err, "scan reconciliation lines")
	}
	for _, l := range lines {
		i := index[l.ReconciliationID]
		recs[i].Lines = append(recs[i].Lines, l)
	}
	return nil
}
