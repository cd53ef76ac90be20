package dto

import "github.com/SscSPs/club_ledger/internal/core/domain"

// ListAuditRecordsParams selects the audit trail of one entity.
type ListAuditRecordsParams struct {
	EntityType domain.AuditEntityType `form:"entityType" binding:"required"`
	EntityID   string                 `form:"entityID" binding:"required"`
}
