package pgsql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type auditRepository struct {
	BaseRepository
}

var _ portsrepo.AuditRepositoryFacade = (*auditRepository)(nil)

const auditColumns = `
	audit_log_id, club_id, entity_type, entity_id, action, before_state, after_state, reason, actor,
	occurred_at, parent_audit_id, has_been_reviewed, reviewed_by, reviewed_at`

func scanAuditLog(row pgx.Row) (domain.FinancialAuditLog, error) {
	var (
		a             domain.FinancialAuditLog
		before, after []byte
	)
	err := row.Scan(&a.AuditLogID, &a.ClubID, &a.EntityType, &a.EntityID, &a.Action, &before, &after,
		&a.Reason, &a.Actor, &a.OccurredAt, &a.ParentAuditID, &a.HasBeenReviewed, &a.ReviewedBy, &a.ReviewedAt)
	if before != nil {
		a.Before = json.RawMessage(before)
	}
	if after != nil {
		a.After = json.RawMessage(after)
	}
	return a, err
}

// jsonArg passes a snapshot as jsonb text, or NULL when absent.
func jsonArg(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func (r *auditRepository) AppendAuditLog(ctx context.Context, record domain.FinancialAuditLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO financial_audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`,
		record.AuditLogID, record.ClubID, record.EntityType, record.EntityID, record.Action,
		jsonArg(record.Before), jsonArg(record.After), record.Reason, record.Actor, record.OccurredAt,
		record.ParentAuditID, record.HasBeenReviewed, record.ReviewedBy, record.ReviewedAt,
	)
	return translate(err, "append audit log "+record.AuditLogID)
}

func (r *auditRepository) FindAuditLogByID(ctx context.Context, clubID, auditLogID string) (*domain.FinancialAuditLog, error) {
	a, err := scanAuditLog(r.db.QueryRow(ctx, `SELECT`+auditColumns+`
		FROM financial_audit_logs WHERE club_id = $1 AND audit_log_id = $2;`, clubID, auditLogID))
	if err != nil {
		return nil, translate(err, "find audit log "+auditLogID)
	}
	return &a, nil
}

func (r *auditRepository) ListAuditLogs(ctx context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error) {
	rows, err := r.db.Query(ctx, `SELECT`+auditColumns+`
		FROM financial_audit_logs
		WHERE club_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY seq;`, clubID, entityType, entityID)
	if err != nil {
		return nil, translate(err, "list audit logs")
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FinancialAuditLog, error) {
		return scanAuditLog(row)
	})
	if err != nil {
		return nil, translate(err, "scan audit logs")
	}
	return logs, nil
}

func (r *auditRepository) MarkReviewed(ctx context.Context, clubID, auditLogID, reviewer string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE financial_audit_logs
		SET has_been_reviewed = TRUE, reviewed_by = $3, reviewed_at = $4
		WHERE club_id = $1 AND audit_log_id = $2;`, clubID, auditLogID, reviewer, at)
	return expectOne(tag, err, "mark audit log "+auditLogID+" reviewed")
}
