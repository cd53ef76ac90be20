package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

type journalRepository struct {
	BaseRepository
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

const entryColumns = `
	e.entry_id, e.club_id, e.entry_number, e.entry_date, e.description, e.currency_code, e.reference, e.source,
	e.status, COALESCE(e.fiscal_period_id, ''), COALESCE(e.reversed_from_id, ''), e.void_reason,
	e.total_debit, e.total_credit, e.submitted_at, e.submitted_by, e.posted_at, e.posted_by,
	e.voided_at, e.voided_by, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by`

const lineColumns = `
	l.line_id, l.entry_id, l.club_id, l.line_number, l.account_id, l.description, l.debit, l.credit,
	COALESCE(l.tax_rate_id, ''), l.tax_amount, l.department, l.project, l.cost_center`

func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.EntryID, &e.ClubID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.CurrencyCode, &e.Reference, &e.Source,
		&e.Status, &e.FiscalPeriodID, &e.ReversedFromID, &e.VoidReason,
		&e.TotalDebit, &e.TotalCredit, &e.SubmittedAt, &e.SubmittedBy, &e.PostedAt, &e.PostedBy,
		&e.VoidedAt, &e.VoidedBy, &e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy,
	)
	return e, err
}

func lineDest(l *domain.JournalEntryLine) []any {
	return []any{
		&l.LineID, &l.EntryID, &l.ClubID, &l.LineNumber, &l.AccountID, &l.Description, &l.Debit, &l.Credit,
		&l.TaxRateID, &l.TaxAmount, &l.Department, &l.Project, &l.CostCenter,
	}
}

// NextEntryNumber bumps the club's sequence row. The row stays locked until the unit of work ends,
// so numbers are gap-free among committed entries.
func (r *journalRepository) NextEntryNumber(ctx context.Context, clubID string) (int64, error) {
	query := `
		INSERT INTO entry_sequences (club_id, last_value) VALUES ($1, 1)
		ON CONFLICT (club_id) DO UPDATE SET last_value = entry_sequences.last_value + 1
		RETURNING last_value;
	`
	var next int64
	if err := r.db.QueryRow(ctx, query, clubID).Scan(&next); err != nil {
		return 0, translate(err, "advance entry sequence")
	}
	return next, nil
}

// SaveEntry inserts the header and its lines in one batch.
func (r *journalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (
			entry_id, club_id, entry_number, entry_date, description, currency_code, reference, source,
			status, fiscal_period_id, reversed_from_id, void_reason, total_debit, total_credit,
			submitted_at, submitted_by, posted_at, posted_by, voided_at, voided_by,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);`,
		entry.EntryID, entry.ClubID, entry.EntryNumber, entry.EntryDate, entry.Description, entry.CurrencyCode,
		entry.Reference, entry.Source, entry.Status, nullIfEmpty(entry.FiscalPeriodID), nullIfEmpty(entry.ReversedFromID),
		entry.VoidReason, entry.TotalDebit, entry.TotalCredit, entry.SubmittedAt, entry.SubmittedBy,
		entry.PostedAt, entry.PostedBy, entry.VoidedAt, entry.VoidedBy,
		entry.CreatedAt, entry.CreatedBy, entry.LastUpdatedAt, entry.LastUpdatedBy,
	)

	lineQuery := `
		INSERT INTO journal_lines (
			line_id, entry_id, club_id, line_number, account_id, description, debit, credit,
			tax_rate_id, tax_amount, department, project, cost_center
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, l := range entry.Lines {
		batch.Queue(lineQuery,
			l.LineID, entry.EntryID, entry.ClubID, l.LineNumber, l.AccountID, l.Description, l.Debit, l.Credit,
			nullIfEmpty(l.TaxRateID), l.TaxAmount, l.Department, l.Project, l.CostCenter,
		)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "insert journal entry "+entry.EntryID)
	}
	return nil
}

func (r *journalRepository) UpdateEntryHeader(ctx context.Context, entry domain.JournalEntry) error {
	query := `
		UPDATE journal_entries SET
			status = $3, fiscal_period_id = $4, void_reason = $5, total_debit = $6, total_credit = $7,
			submitted_at = $8, submitted_by = $9, posted_at = $10, posted_by = $11,
			voided_at = $12, voided_by = $13, last_updated_at = $14, last_updated_by = $15
		WHERE club_id = $1 AND entry_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, entry.ClubID, entry.EntryID, entry.Status, nullIfEmpty(entry.FiscalPeriodID),
		entry.VoidReason, entry.TotalDebit, entry.TotalCredit, entry.SubmittedAt, entry.SubmittedBy,
		entry.PostedAt, entry.PostedBy, entry.VoidedAt, entry.VoidedBy, entry.LastUpdatedAt, entry.LastUpdatedBy)
	return expectOne(tag, err, "update journal entry "+entry.EntryID)
}

func (r *journalRepository) FindEntryByID(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `SELECT`+entryColumns+` FROM journal_entries e WHERE e.club_id = $1 AND e.entry_id = $2;`, clubID, entryID)
}

func (r *journalRepository) FindReversalOf(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `SELECT`+entryColumns+` FROM journal_entries e WHERE e.club_id = $1 AND e.reversed_from_id = $2;`, clubID, entryID)
}

func (r *journalRepository) findOne(ctx context.Context, query, clubID, key string) (*domain.JournalEntry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, query, clubID, key))
	if err != nil {
		return nil, translate(err, "find journal entry "+key)
	}
	entries := []domain.JournalEntry{e}
	if err := r.attachLines(ctx, clubID, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// ListEntries pages newest first using a keyset on (entry_date, created_at, entry_id).
func (r *journalRepository) ListEntries(ctx context.Context, clubID string, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	conds := []string{"e.club_id = $1"}
	args := []any{clubID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "e.status = ANY("+arg(statuses)+")")
	}
	if filter.From != nil {
		conds = append(conds, "e.entry_date >= "+arg(domain.DateOnly(*filter.From)))
	}
	if filter.To != nil {
		conds = append(conds, "e.entry_date <= "+arg(domain.DateOnly(*filter.To)))
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		conds = append(conds, fmt.Sprintf("(e.entry_date, e.created_at, e.entry_id) < (%s::date, %s, %s)",
			arg(cursor.EntryDate), arg(cursor.CreatedAt), arg(cursor.EntryID)))
	}

	query := `SELECT` + entryColumns + `
		FROM journal_entries e
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY e.entry_date DESC, e.created_at DESC, e.entry_id DESC
		LIMIT ` + arg(limit+1) + `;`

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(pagination.EntryCursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
		next = &token
	}
	if err := r.attachLines(ctx, clubID, entries); err != nil {
		return nil, nil, err
	}
	return entries, next, nil
}

func (r *journalRepository) FindEntriesByDateRange(ctx context.Context, clubID string, from, to time.Time, statuses []domain.EntryStatus) ([]domain.JournalEntry, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT` + entryColumns + `
		FROM journal_entries e
		WHERE e.club_id = $1 AND e.entry_date >= $2 AND e.entry_date <= $3
		  AND (cardinality($4::text[]) = 0 OR e.status = ANY($4))
		ORDER BY e.entry_date, e.entry_number;`
	entries, err := r.queryEntries(ctx, query, clubID, domain.DateOnly(from), domain.DateOnly(to), names)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, clubID, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepository) ListLedgerLines(ctx context.Context, clubID string, filter domain.LedgerLineFilter) ([]domain.LedgerLine, error) {
	conds := []string{"e.club_id = $1", "e.status IN ('POSTED', 'VOIDED')"}
	args := []any{clubID}
	if len(filter.AccountIDs) > 0 {
		args = append(args, filter.AccountIDs)
		conds = append(conds, fmt.Sprintf("l.account_id = ANY($%d)", len(args)))
	}
	if filter.From != nil {
		args = append(args, domain.DateOnly(*filter.From))
		conds = append(conds, fmt.Sprintf("e.entry_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, domain.DateOnly(*filter.To))
		conds = append(conds, fmt.Sprintf("e.entry_date <= $%d", len(args)))
	}

	query := `SELECT` + lineColumns + `, e.entry_date, e.entry_number, e.status, e.source
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY e.entry_date, e.entry_number, l.line_number;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list ledger lines")
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerLine, error) {
		var ll domain.LedgerLine
		dest := append(lineDest(&ll.JournalEntryLine), &ll.EntryDate, &ll.EntryNumber, &ll.EntryStatus, &ll.Source)
		err := row.Scan(dest...)
		return ll, err
	})
	if err != nil {
		return nil, translate(err, "scan ledger lines")
	}
	return lines, nil
}

func (r *journalRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query journal entries")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.JournalEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, translate(err, "scan journal entries")
	}
	return entries, nil
}

// attachLines loads the lines of every entry with a single query.
func (r *journalRepository) attachLines(ctx context.Context, clubID string, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		ids[i] = e.EntryID
		index[e.EntryID] = i
		entries[i].Lines = []domain.JournalEntryLine{}
	}

	query := `SELECT` + lineColumns + `
		FROM journal_lines l
		WHERE l.club_id = $1 AND l.entry_id = ANY($2)
		ORDER BY l.entry_id, l.line_number;`
	rows, err := r.db.Query(ctx, query, clubID, ids)
	if err != nil {
		return translate(err, "query journal lines")
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.JournalEntryLine, error) {
		var l domain.JournalEntryLine
		err := row.Scan(lineDest(&l)...)
		return l, err
	})
	if err != nil {
		return translate(err, "scan journal lines")
	}
	for _, l := range lines {
		i := index[l.EntryID]
		entries[i].Lines = append(entries[i].Lines, l)
	}
	return nil
}
