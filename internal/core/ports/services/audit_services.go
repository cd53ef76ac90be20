package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// AuditSvcFacade exposes the financial audit trail to compliance tooling.
type AuditSvcFacade interface {
	ListAuditRecords(ctx context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error)
	MarkReviewed(ctx context.Context, clubID, auditLogID, reviewer string) (*domain.FinancialAuditLog, error)
}
