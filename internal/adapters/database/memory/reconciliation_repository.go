package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type reconciliationRepository struct {
	s *store
}

var _ portsrepo.ReconciliationRepositoryFacade = (*reconciliationRepository)(nil)

func (r *reconciliationRepository) SaveReconciliation(_ context.Context, rec domain.BankReconciliation) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.reconciliations[rec.ReconciliationID]; exists {
			return fmt.Errorf("%w: reconciliation %s", apperrors.ErrDuplicate, rec.ReconciliationID)
		}
		st.reconciliations[rec.ReconciliationID] = cloneReconciliation(rec)
		return nil
	})
}

func (r *reconciliationRepository) UpdateReconciliation(_ context.Context, rec domain.BankReconciliation) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.reconciliations[rec.ReconciliationID]
		if !ok || existing.ClubID != rec.ClubID {
			return apperrors.ErrNotFound
		}
		st.reconciliations[rec.ReconciliationID] = cloneReconciliation(rec)
		return nil
	})
}

func (r *reconciliationRepository) FindReconciliationByID(_ context.Context, clubID, reconciliationID string) (*domain.BankReconciliation, error) {
	rec, ok := r.s.read().reconciliations[reconciliationID]
	if !ok || rec.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	rec = cloneReconciliation(rec)
	return &rec, nil
}

func (r *reconciliationRepository) ListReconciliations(_ context.Context, clubID, accountID string, statuses []domain.ReconciliationStatus) ([]domain.BankReconciliation, error) {
	out := []domain.BankReconciliation{}
	for _, rec := range r.s.read().reconciliations {
		if rec.ClubID != clubID || rec.AccountID != accountID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, rec.Status) {
			continue
		}
		out = append(out, cloneReconciliation(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func (r *reconciliationRepository) ReconciledJournalLineIDs(_ context.Context, clubID, accountID string) (map[string]struct{}, error) {
	ids := map[string]struct{}{}
	for _, rec := range r.s.read().reconciliations {
		if rec.ClubID != clubID || rec.AccountID != accountID || rec.Status != domain.ReconciliationCompleted {
			continue
		}
		for _, l := range rec.Lines {
			if l.Source == domain.SourceBook && l.IsReconciled {
				ids[l.JournalLineID] = struct{}{}
			}
		}
	}
	return ids, nil
}

func containsStatus(statuses []domain.ReconciliationStatus, s domain.ReconciliationStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
