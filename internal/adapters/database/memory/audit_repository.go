package memory

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type auditRepository struct {
	s *store
}

var _ portsrepo.AuditRepositoryFacade = (*auditRepository)(nil)

func (r *auditRepository) AppendAuditLog(_ context.Context, record domain.FinancialAuditLog) error {
	return r.s.write(func(st *state) error {
		st.auditLogs = append(st.auditLogs, record)
		return nil
	})
}

func (r *auditRepository) FindAuditLogByID(_ context.Context, clubID, auditLogID string) (*domain.FinancialAuditLog, error) {
	for _, rec := range r.s.read().auditLogs {
		if rec.AuditLogID == auditLogID && rec.ClubID == clubID {
			found := rec
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *auditRepository) ListAuditLogs(_ context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error) {
	out := []domain.FinancialAuditLog{}
	for _, rec := range r.s.read().auditLogs {
		if rec.ClubID == clubID && rec.EntityType == entityType && rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *auditRepository) MarkReviewed(_ context.Context, clubID, auditLogID, reviewer string, at time.Time) error {
	return r.s.write(func(st *state) error {
		for i := range st.auditLogs {
			if st.auditLogs[i].AuditLogID == auditLogID && st.auditLogs[i].ClubID == clubID {
				st.auditLogs[i].HasBeenReviewed = true
				st.auditLogs[i].ReviewedBy = reviewer
				reviewedAt := at
				st.auditLogs[i].ReviewedAt = &reviewedAt
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
}
