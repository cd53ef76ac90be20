package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// JournalReader defines read operations for journal entries.
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines ordered by line number.
	FindEntryByID(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error)

	// FindReversalOf returns the entry whose ReversedFromID is entryID, or apperrors.ErrNotFound.
	FindReversalOf(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries newest first, paginated by an opaque token.
	ListEntries(ctx context.Context, clubID string, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// FindEntriesByDateRange returns every entry dated within [from, to] in one of the statuses, lines included.
	FindEntriesByDateRange(ctx context.Context, clubID string, from, to time.Time, statuses []domain.EntryStatus) ([]domain.JournalEntry, error)

	// ListLedgerLines returns lines of POSTED and VOIDED entries matching the filter,
	// ordered by entry date, entry number and line number.
	ListLedgerLines(ctx context.Context, clubID string, filter domain.LedgerLineFilter) ([]domain.LedgerLine, error)
}

// JournalWriter defines write operations for journal entries.
type JournalWriter interface {
	// NextEntryNumber returns the next value of the club's entry sequence.
	NextEntryNumber(ctx context.Context, clubID string) (int64, error)

	// SaveEntry persists a new entry with its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntryHeader updates status, totals and workflow fields. Lines never change.
	UpdateEntryHeader(ctx context.Context, entry domain.JournalEntry) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
