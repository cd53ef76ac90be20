package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type taxRateRepository struct {
	BaseRepository
}

var _ portsrepo.TaxRateRepositoryFacade = (*taxRateRepository)(nil)

const taxRateColumns = `
	tax_rate_id, club_id, code, name, rate, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTaxRate(row pgx.Row) (domain.TaxRate, error) {
	var t domain.TaxRate
	err := row.Scan(&t.TaxRateID, &t.ClubID, &t.Code, &t.Name, &t.Rate, &t.IsActive,
		&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy)
	return t, err
}

func (r *taxRateRepository) SaveTaxRate(ctx context.Context, rate domain.TaxRate) error {
	query := `
		INSERT INTO tax_rates (` + taxRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.Exec(ctx, query, rate.TaxRateID, rate.ClubID, rate.Code, rate.Name, rate.Rate, rate.IsActive,
		rate.CreatedAt, rate.CreatedBy, rate.LastUpdatedAt, rate.LastUpdatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "tax_rates_club_code_key" {
		return fmt.Errorf("%w: tax rate code %s", apperrors.ErrDuplicateCode, rate.Code)
	}
	return translate(err, "insert tax rate "+rate.TaxRateID)
}

func (r *taxRateRepository) UpdateTaxRate(ctx context.Context, rate domain.TaxRate) error {
	query := `
		UPDATE tax_rates SET name = $3, rate = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE club_id = $1 AND tax_rate_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, rate.ClubID, rate.TaxRateID, rate.Name, rate.Rate, rate.IsActive,
		rate.LastUpdatedAt, rate.LastUpdatedBy)
	return expectOne(tag, err, "update tax rate "+rate.TaxRateID)
}

func (r *taxRateRepository) FindTaxRateByID(ctx context.Context, clubID, taxRateID string) (*domain.TaxRate, error) {
	query := `SELECT` + taxRateColumns + ` FROM tax_rates WHERE club_id = $1 AND tax_rate_id = $2;`
	t, err := scanTaxRate(r.db.QueryRow(ctx, query, clubID, taxRateID))
	if err != nil {
		return nil, translate(err, "find tax rate "+taxRateID)
	}
	return &t, nil
}

func (r *taxRateRepository) FindTaxRateByCode(ctx context.Context, clubID, code string) (*domain.TaxRate, error) {
	query := `SELECT` + taxRateColumns + ` FROM tax_rates WHERE club_id = $1 AND code = $2;`
	t, err := scanTaxRate(r.db.QueryRow(ctx, query, clubID, code))
	if err != nil {
		return nil, translate(err, "find tax rate by code "+code)
	}
	return &t, nil
}

func (r *taxRateRepository) ListTaxRates(ctx context.Context, clubID string) ([]domain.TaxRate, error) {
	query := `SELECT` + taxRateColumns + ` FROM tax_rates WHERE club_id = $1 ORDER BY code;`
	rows, err := r.db.Query(ctx, query, clubID)
	if err != nil {
		return nil, translate(err, "list tax rates")
	}
	rates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TaxRate, error) {
		return scanTaxRate(row)
	})
	if err != nil {
		return nil, translate(err, "scan tax rates")
	}
	return rates, nil
}
