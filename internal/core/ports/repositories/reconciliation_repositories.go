package repositories

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// ReconciliationRepositoryFacade defines persistence for bank reconciliation sessions.
type ReconciliationRepositoryFacade interface {
	// SaveReconciliation persists a new session with its lines.
	SaveReconciliation(ctx context.Context, rec domain.BankReconciliation) error

	// UpdateReconciliation replaces the header and lines of a session.
	UpdateReconciliation(ctx context.Context, rec domain.BankReconciliation) error

	FindReconciliationByID(ctx context.Context, clubID, reconciliationID string) (*domain.BankReconciliation, error)

	// ListReconciliations returns the sessions of an account in the given statuses (all when empty).
	ListReconciliations(ctx context.Context, clubID, accountID string, statuses []domain.ReconciliationStatus) ([]domain.BankReconciliation, error)

	// ReconciledJournalLineIDs returns the journal lines already reconciled by completed sessions of an account.
	ReconciledJournalLineIDs(ctx context.Context, clubID, accountID string) (map[string]struct{}, error)
}
