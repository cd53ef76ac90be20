package services

import (
	"context"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
)

// PostOptions carries authority the caller asserts for a posting.
type PostOptions struct {
	// OverrideClosedPeriod permits posting into a CLOSED period of a year that allows it.
	OverrideClosedPeriod bool
}

// JournalReaderSvc defines read operations for journal entries.
type JournalReaderSvc interface {
	GetEntry(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error)

	// FindReversal returns the entry reversing entryID, or apperrors.ErrNotFound.
	FindReversal(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error)

	ListEntries(ctx context.Context, clubID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error)
}

// JournalWriterSvc defines the journal entry workflow.
type JournalWriterSvc interface {
	// CreateDraft validates lines against the chart of accounts and stores a DRAFT entry.
	CreateDraft(ctx context.Context, clubID string, req dto.CreateJournalEntryRequest, actor string) (*domain.JournalEntry, error)

	// SubmitForApproval moves a DRAFT entry to PENDING_APPROVAL.
	SubmitForApproval(ctx context.Context, clubID, entryID, actor string) (*domain.JournalEntry, error)

	// Post validates balance and period, applies balance deltas and marks the entry POSTED.
	Post(ctx context.Context, clubID, entryID string, opts PostOptions, actor string) (*domain.JournalEntry, error)

	// RecordEntry creates and posts an entry in one unit of work and returns its id.
	RecordEntry(ctx context.Context, clubID string, req dto.CreateJournalEntryRequest, opts PostOptions, actor string) (string, error)

	// Void reverses a posted entry and returns the reversing entry's id.
	Void(ctx context.Context, clubID, entryID, reason, actor string) (string, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
