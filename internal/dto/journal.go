package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one debit or credit of a journal entry.
type JournalLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit" binding:"gte=0"`
	Credit      decimal.Decimal `json:"credit" binding:"gte=0"`
	TaxRateID   string          `json:"taxRateID"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Department  string          `json:"department"`
	Project     string          `json:"project"`
	CostCenter  string          `json:"costCenter"`
}

// CreateJournalEntryRequest defines a journal entry and its ordered lines.
// An entry without lines is rejected with EMPTY_ENTRY by the posting engine.
type CreateJournalEntryRequest struct {
	EntryDate    time.Time            `json:"entryDate" binding:"required"`
	Description  string               `json:"description" binding:"required,max=500"`
	CurrencyCode string               `json:"currencyCode" binding:"required,len=3"`
	Reference    string               `json:"reference"`
	Source       string               `json:"source"`
	Lines        []JournalLineRequest `json:"lines" binding:"dive"`
}

// PostEntryRequest carries caller-asserted authority for posting.
type PostEntryRequest struct {
	OverrideClosedPeriod bool `json:"overrideClosedPeriod"`
}

// VoidEntryRequest defines the data needed to void a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListJournalEntriesParams defines query parameters for listing entries.
type ListJournalEntriesParams struct {
	Limit     int                  `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken string               `form:"nextToken"`
	Statuses  []domain.EntryStatus `form:"status" binding:"dive,oneof=DRAFT PENDING_APPROVAL POSTED VOIDED"`
	From      *time.Time           `form:"from" time_format:"2006-01-02"`
	To        *time.Time           `form:"to" time_format:"2006-01-02"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	LineNumber  int             `json:"lineNumber"`
	AccountID   string          `json:"accountID"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit" binding:"gte=0"`
	Credit      decimal.Decimal `json:"credit" binding:"gte=0"`
	TaxRateID   string          `json:"taxRateID,omitempty"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Department  string          `json:"department,omitempty"`
	Project     string          `json:"project,omitempty"`
	CostCenter  string          `json:"costCenter,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID        string                `json:"entryID"`
	EntryNumber    string                `json:"entryNumber"`
	EntryDate      time.Time             `json:"entryDate"`
	Description    string                `json:"description"`
	CurrencyCode   string                `json:"currencyCode"`
	Reference      string                `json:"reference,omitempty"`
	Source         string                `json:"source"`
	Status         domain.EntryStatus    `json:"status"`
	FiscalPeriodID string                `json:"fiscalPeriodID,omitempty"`
	ReversedFromID string                `json:"reversedFromID,omitempty"`
	VoidReason     string                `json:"voidReason,omitempty"`
	TotalDebit     decimal.Decimal       `json:"totalDebit"`
	TotalCredit    decimal.Decimal       `json:"totalCredit"`
	PostedAt       *time.Time            `json:"postedAt,omitempty"`
	PostedBy       string                `json:"postedBy,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	CreatedBy      string                `json:"createdBy"`
	Lines          []JournalLineResponse `json:"lines"`
}

// ListJournalEntriesResponse is one page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// EntryIDResponse returns the id of a created or reversing entry.
type EntryIDResponse struct {
	EntryID string `json:"entryID"`
}

// ToJournalLines converts DTO lines to domain lines, numbering them in order.
func ToJournalLines(lines []JournalLineRequest) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalEntryLine{
			LineNumber:  i + 1,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			TaxRateID:   l.TaxRateID,
			TaxAmount:   l.TaxAmount,
			Department:  l.Department,
			Project:     l.Project,
			CostCenter:  l.CostCenter,
		}
	}
	return out
}

// ToJournalEntryResponse converts a domain.JournalEntry to its response DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:      l.LineID,
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			TaxRateID:   l.TaxRateID,
			TaxAmount:   l.TaxAmount,
			Department:  l.Department,
			Project:     l.Project,
			CostCenter:  l.CostCenter,
		}
	}
	return JournalEntryResponse{
		EntryID:        e.EntryID,
		EntryNumber:    e.EntryNumber,
		EntryDate:      e.EntryDate,
		Description:    e.Description,
		CurrencyCode:   e.CurrencyCode,
		Reference:      e.Reference,
		Source:         e.Source,
		Status:         e.Status,
		FiscalPeriodID: e.FiscalPeriodID,
		ReversedFromID: e.ReversedFromID,
		VoidReason:     e.VoidReason,
		TotalDebit:     e.TotalDebit,
		TotalCredit:    e.TotalCredit,
		PostedAt:       e.PostedAt,
		PostedBy:       e.PostedBy,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
		Lines:          lines,
	}
}

// ToListJournalEntriesResponse converts a page of entries.
func ToListJournalEntriesResponse(entries []domain.JournalEntry, nextToken *string) ListJournalEntriesResponse {
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return ListJournalEntriesResponse{Entries: out, NextToken: nextToken}
}
