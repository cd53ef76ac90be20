package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
)

type auditService struct {
	BaseService
}

// NewAuditService creates the read side of the financial audit trail.
func NewAuditService(base BaseService) portssvc.AuditSvcFacade {
	return &auditService{BaseService: base}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

func (s *auditService) ListAuditRecords(ctx context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error) {
	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("%w: entity type and id are required", apperrors.ErrValidation)
	}
	records, err := s.DB.Audit().ListAuditLogs(ctx, clubID, entityType, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit records", slog.String("entity_type", string(entityType)), slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

// MarkReviewed flags a record as seen by compliance. It is the only change an audit
// record ever receives, and it is not itself audited.
func (s *auditService) MarkReviewed(ctx context.Context, clubID, auditLogID, reviewer string) (*domain.FinancialAuditLog, error) {
	if err := requireActor(reviewer); err != nil {
		return nil, err
	}
	rec, err := s.DB.Audit().FindAuditLogByID(ctx, clubID, auditLogID)
	if err != nil {
		return nil, err
	}
	if rec.HasBeenReviewed {
		return nil, fmt.Errorf("%w: audit record was reviewed by %s", apperrors.ErrInvalidTransition, rec.ReviewedBy)
	}
	if err := s.DB.Audit().MarkReviewed(ctx, clubID, auditLogID, reviewer, s.now()); err != nil {
		s.LogError(ctx, err, "Failed to mark audit record reviewed", slog.String("audit_log_id", auditLogID))
		return nil, fmt.Errorf("failed to mark audit record reviewed: %w", err)
	}
	return s.DB.Audit().FindAuditLogByID(ctx, clubID, auditLogID)
}
