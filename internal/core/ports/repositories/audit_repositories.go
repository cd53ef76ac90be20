package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// AuditRepositoryFacade defines the append-only audit store.
type AuditRepositoryFacade interface {
	// AppendAuditLog inserts a record. Records are never updated except through MarkReviewed.
	AppendAuditLog(ctx context.Context, record domain.FinancialAuditLog) error

	FindAuditLogByID(ctx context.Context, clubID, auditLogID string) (*domain.FinancialAuditLog, error)

	// ListAuditLogs returns the records of one entity in insertion order.
	ListAuditLogs(ctx context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error)

	// MarkReviewed sets the review flag of a record.
	MarkReviewed(ctx context.Context, clubID, auditLogID, reviewer string, at time.Time) error
}
