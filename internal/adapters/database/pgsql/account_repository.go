package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type accountRepository struct {
	BaseRepository
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

const accountColumns = `
	account_id, club_id, code, name, description, category, normal_side,
	COALESCE(parent_account_id, ''), level, full_path, is_header, is_bank_account, is_active, is_locked,
	opening_balance, current_balance, year_to_date_balance, prior_year_balance,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountID, &a.ClubID, &a.Code, &a.Name, &a.Description, &a.Category, &a.NormalSide,
		&a.ParentAccountID, &a.Level, &a.FullPath, &a.IsHeader, &a.IsBankAccount, &a.IsActive, &a.IsLocked,
		&a.OpeningBalance, &a.CurrentBalance, &a.YearToDateBalance, &a.PriorYearBalance,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
	)
	return a, err
}

// SaveAccount inserts a new account. A clash on (club_id, code) is reported as a duplicate code.
func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (
			account_id, club_id, code, name, description, category, normal_side,
			parent_account_id, level, full_path, is_header, is_bank_account, is_active, is_locked,
			opening_balance, current_balance, year_to_date_balance, prior_year_balance,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`
	_, err := r.db.Exec(ctx, query,
		account.AccountID, account.ClubID, account.Code, account.Name, account.Description,
		account.Category, account.NormalSide, nullIfEmpty(account.ParentAccountID), account.Level,
		account.FullPath, account.IsHeader, account.IsBankAccount, account.IsActive, account.IsLocked,
		account.OpeningBalance, account.CurrentBalance, account.YearToDateBalance, account.PriorYearBalance,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "accounts_club_code_key" {
		return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicateCode, account.Code)
	}
	return translate(err, "insert account "+account.AccountID)
}

func (r *accountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts SET
			name = $3, description = $4, parent_account_id = $5, level = $6, full_path = $7,
			is_header = $8, is_bank_account = $9, is_active = $10, is_locked = $11,
			opening_balance = $12, current_balance = $13, year_to_date_balance = $14, prior_year_balance = $15,
			last_updated_at = $16, last_updated_by = $17
		WHERE club_id = $1 AND account_id = $2;
	`
	tag, err := r.db.Exec(ctx, query,
		account.ClubID, account.AccountID, account.Name, account.Description,
		nullIfEmpty(account.ParentAccountID), account.Level, account.FullPath,
		account.IsHeader, account.IsBankAccount, account.IsActive, account.IsLocked,
		account.OpeningBalance, account.CurrentBalance, account.YearToDateBalance, account.PriorYearBalance,
		account.LastUpdatedAt, account.LastUpdatedBy,
	)
	return expectOne(tag, err, "update account "+account.AccountID)
}

func (r *accountRepository) FindAccountByID(ctx context.Context, clubID, accountID string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE club_id = $1 AND account_id = $2;`
	a, err := scanAccount(r.db.QueryRow(ctx, query, clubID, accountID))
	if err != nil {
		return nil, translate(err, "find account "+accountID)
	}
	return &a, nil
}

func (r *accountRepository) FindAccountByCode(ctx context.Context, clubID, code string) (*domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE club_id = $1 AND code = $2;`
	a, err := scanAccount(r.db.QueryRow(ctx, query, clubID, code))
	if err != nil {
		return nil, translate(err, "find account by code "+code)
	}
	return &a, nil
}

func (r *accountRepository) FindAccountsByIDs(ctx context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE club_id = $1 AND account_id = ANY($2);`
	return r.queryAccountMap(ctx, query, clubID, accountIDs)
}

// FindAccountsByIDsForUpdate locks the rows in id order so concurrent postings cannot deadlock.
func (r *accountRepository) FindAccountsByIDsForUpdate(ctx context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts WHERE club_id = $1 AND account_id = ANY($2)
		ORDER BY account_id
		FOR UPDATE;`
	return r.queryAccountMap(ctx, query, clubID, accountIDs)
}

func (r *accountRepository) queryAccountMap(ctx context.Context, query, clubID string, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, query, clubID, accountIDs)
	if err != nil {
		return nil, translate(err, "query accounts")
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		return scanAccount(row)
	})
	if err != nil {
		return nil, translate(err, "scan accounts")
	}
	for _, a := range accounts {
		out[a.AccountID] = a
	}
	return out, nil
}

func (r *accountRepository) ListAccounts(ctx context.Context, clubID string) ([]domain.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE club_id = $1 ORDER BY code;`
	rows, err := r.db.Query(ctx, query, clubID)
	if err != nil {
		return nil, translate(err, "list accounts")
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		return scanAccount(row)
	})
	if err != nil {
		return nil, translate(err, "scan accounts")
	}
	return accounts, nil
}

// ApplyBalanceDeltas adjusts the caches in one batch; every account must exist in the club.
func (r *accountRepository) ApplyBalanceDeltas(ctx context.Context, clubID string, deltas map[string]domain.BalanceDelta, actor string, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET current_balance = current_balance + $3,
		    year_to_date_balance = year_to_date_balance + $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE club_id = $1 AND account_id = $2;
	`
	batch := &pgx.Batch{}
	order := make([]string, 0, len(deltas))
	for id, d := range deltas {
		batch.Queue(query, clubID, id, d.Current, d.YearToDate, now, actor)
		order = append(order, id)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for _, id := range order {
		tag, err := br.Exec()
		if err != nil {
			return translate(err, "update balance of account "+id)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: account %s not found while applying balance delta", apperrors.ErrNotFound, id)
		}
	}
	return nil
}
