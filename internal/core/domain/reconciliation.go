package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the lifecycle state of a reconciliation session.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "IN_PROGRESS"
	ReconciliationCompleted  ReconciliationStatus = "COMPLETED"
	ReconciliationCancelled  ReconciliationStatus = "CANCELLED"
)

// LineSource says where a reconciliation line came from.
type LineSource string

const (
	SourceBank       LineSource = "BANK"
	SourceBook       LineSource = "BOOK"
	SourceAdjustment LineSource = "ADJUSTMENT"
)

// MatchType describes how a bank line was paired with a book line.
type MatchType string

const (
	MatchNone    MatchType = ""
	MatchExact   MatchType = "EXACT"
	MatchPartial MatchType = "PARTIAL"
	MatchManual  MatchType = "MANUAL"
)

// BankReconciliation is a session reconciling one bank account for a statement period.
type BankReconciliation struct {
	ReconciliationID    string                   `json:"reconciliationID"`
	ClubID              string                   `json:"clubID"`
	AccountID           string                   `json:"accountID"`
	PeriodStart         time.Time                `json:"periodStart"`
	PeriodEnd           time.Time                `json:"periodEnd"` // Inclusive
	OpeningBalance      decimal.Decimal          `json:"openingBalance"`
	ClosingBalance      decimal.Decimal          `json:"closingBalance"` // Per statement
	BookClosingBalance  decimal.Decimal          `json:"bookClosingBalance"`
	AdjustedBookBalance decimal.Decimal          `json:"adjustedBookBalance"`
	Difference          decimal.Decimal          `json:"difference"` // ClosingBalance - AdjustedBookBalance
	Status              ReconciliationStatus     `json:"status"`
	CompletedAt         *time.Time               `json:"completedAt"`
	CompletedBy         string                   `json:"completedBy"`
	Lines               []BankReconciliationLine `json:"lines"`
	AuditFields
}

// Overlaps reports whether the session's statement period intersects [start, end].
func (r BankReconciliation) Overlaps(start, end time.Time) bool {
	return !r.PeriodStart.After(end) && !start.After(r.PeriodEnd)
}

// BankReconciliationLine is a bank, book or adjustment line of a session.
// Amounts are signed from the bank's point of view: deposits positive, withdrawals negative.
type BankReconciliationLine struct {
	LineID           string          `json:"lineID"`
	ReconciliationID string          `json:"reconciliationID"`
	Source           LineSource      `json:"source"`
	TransactionDate  time.Time       `json:"transactionDate"`
	Description      string          `json:"description"`
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	JournalEntryID   string          `json:"journalEntryID"` // Book lines only
	JournalLineID    string          `json:"journalLineID"`  // Book lines only
	MatchedLineID    string          `json:"matchedLineID"`
	MatchType        MatchType       `json:"matchType"`
	MatchConfidence  decimal.Decimal `json:"matchConfidence"`
	IsBankOnlyItem   bool            `json:"isBankOnlyItem"`
	IsOutstanding    bool            `json:"isOutstanding"`
	IsReconciled     bool            `json:"isReconciled"`
	Notes            string          `json:"notes"`
}

// IsMatched reports whether the line has a counterpart.
func (l BankReconciliationLine) IsMatched() bool {
	return l.MatchedLineID != ""
}

// StatementLine is a pre-parsed bank statement transaction.
type StatementLine struct {
	TransactionDate time.Time
	Description     string
	Reference       string
	Amount          decimal.Decimal
}

// ReconciliationSummary previews the completion arithmetic of a session.
type ReconciliationSummary struct {
	ReconciliationID    string          `json:"reconciliationID"`
	BookClosingBalance  decimal.Decimal `json:"bookClosingBalance"`
	BankOnlyTotal       decimal.Decimal `json:"bankOnlyTotal"`
	AdjustmentTotal     decimal.Decimal `json:"adjustmentTotal"`
	OutstandingTotal    decimal.Decimal `json:"outstandingTotal"`
	AdjustedBookBalance decimal.Decimal `json:"adjustedBookBalance"`
	ClosingBalance      decimal.Decimal `json:"closingBalance"`
	Difference          decimal.Decimal `json:"difference"`
	MatchedCount        int             `json:"matchedCount"`
	BankOnlyCount       int             `json:"bankOnlyCount"`
	OutstandingCount    int             `json:"outstandingCount"`
	HasVariance         bool            `json:"hasVariance"`
}
