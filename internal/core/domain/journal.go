package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	EntryDraft           EntryStatus = "DRAFT"
	EntryPendingApproval EntryStatus = "PENDING_APPROVAL"
	EntryPosted          EntryStatus = "POSTED"
	EntryVoided          EntryStatus = "VOIDED"
)

// CountsTowardBalance reports whether lines of an entry in this status are part of the ledger.
// A voided entry still counts; its reversal nets it out.
func (s EntryStatus) CountsTowardBalance() bool {
	return s == EntryPosted || s == EntryVoided
}

// IsPostable reports whether an entry in this status may be posted.
func (s EntryStatus) IsPostable() bool {
	return s == EntryDraft || s == EntryPendingApproval
}

// Entry sources the ledger itself produces. Callers may supply their own.
const (
	SourceManual    = "MANUAL"
	SourceReversal  = "REVERSAL"
	SourceYearClose = "YEAR_CLOSE"
)

// JournalEntry is a single balanced financial event composed of ordered lines.
type JournalEntry struct {
	EntryID        string             `json:"entryID"`
	ClubID         string             `json:"clubID"`
	EntryNumber    string             `json:"entryNumber"` // Unique per club, assigned at creation
	EntryDate      time.Time          `json:"entryDate"`
	Description    string             `json:"description"`
	CurrencyCode   string             `json:"currencyCode"`
	Reference      string             `json:"reference"`
	Source         string             `json:"source"`
	Status         EntryStatus        `json:"status"`
	FiscalPeriodID string             `json:"fiscalPeriodID"` // Set on posting
	ReversedFromID string             `json:"reversedFromID"` // Set on reversal entries only
	VoidReason     string             `json:"voidReason"`
	TotalDebit     decimal.Decimal    `json:"totalDebit"`
	TotalCredit    decimal.Decimal    `json:"totalCredit"`
	SubmittedAt    *time.Time         `json:"submittedAt"`
	SubmittedBy    string             `json:"submittedBy"`
	PostedAt       *time.Time         `json:"postedAt"`
	PostedBy       string             `json:"postedBy"`
	VoidedAt       *time.Time         `json:"voidedAt"`
	VoidedBy       string             `json:"voidedBy"`
	Lines          []JournalEntryLine `json:"lines"` // Ordered by LineNumber
	AuditFields
}

// IsReversal reports whether the entry reverses another one.
func (e JournalEntry) IsReversal() bool {
	return e.ReversedFromID != ""
}

// AccountIDs returns the distinct accounts touched by the entry, in line order.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}

// JournalEntryLine is one debit or credit against an account.
// Exactly one of Debit and Credit is non-zero.
type JournalEntryLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	ClubID      string          `json:"clubID"`
	LineNumber  int             `json:"lineNumber"` // 1-based, presentation order
	AccountID   string          `json:"accountID"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	TaxRateID   string          `json:"taxRateID"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Department  string          `json:"department"`
	Project     string          `json:"project"`
	CostCenter  string          `json:"costCenter"`
}

// LedgerLine is a line that counts toward balances, joined with its entry header.
type LedgerLine struct {
	JournalEntryLine
	EntryDate   time.Time   `json:"entryDate"`
	EntryNumber string      `json:"entryNumber"`
	EntryStatus EntryStatus `json:"entryStatus"`
	Source      string      `json:"source"`
}

// LedgerLineFilter narrows a ledger line query. Zero values mean unbounded.
type LedgerLineFilter struct {
	AccountIDs []string
	From       *time.Time
	To         *time.Time
}

// EntryFilter narrows a journal entry listing.
type EntryFilter struct {
	Statuses []EntryStatus
	From     *time.Time
	To       *time.Time
}
