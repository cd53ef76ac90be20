package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// ReconciliationSvcFacade reconciles bank statements against posted book lines.
type ReconciliationSvcFacade interface {
	StartReconciliation(ctx context.Context, clubID string, req dto.StartReconciliationRequest, actor string) (*domain.BankReconciliation, error)

	// AutoMatch pairs bank and book lines by amount and date proximity. Manual matches are kept.
	AutoMatch(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error)

	ManualMatch(ctx context.Context, clubID, reconciliationID string, req dto.ManualMatchRequest, actor string) (*domain.BankReconciliation, error)
	Unmatch(ctx context.Context, clubID, reconciliationID, lineID, actor string) (*domain.BankReconciliation, error)
	RecordAdjustment(ctx context.Context, clubID, reconciliationID string, req dto.RecordAdjustmentRequest, actor string) (*domain.BankReconciliation, error)

	// Summarize previews the completion arithmetic and flags any variance.
	Summarize(ctx context.Context, clubID, reconciliationID string) (*domain.ReconciliationSummary, error)

	Complete(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error)
	Cancel(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error)
	GetReconciliation(ctx context.Context, clubID, reconciliationID string) (*domain.BankReconciliation, error)
}
