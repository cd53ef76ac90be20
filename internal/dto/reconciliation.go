package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementLineRequest is one pre-parsed bank statement transaction.
// Deposits are positive, withdrawals negative.
type StatementLineRequest struct {
	TransactionDate time.Time       `json:"transactionDate" binding:"required"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
	Amount          decimal.Decimal `json:"amount"`
}

// StartReconciliationRequest opens a reconciliation session for a bank account.
type StartReconciliationRequest struct {
	AccountID      string                 `json:"accountID" binding:"required"`
	PeriodStart    time.Time              `json:"periodStart" binding:"required"`
	PeriodEnd      time.Time              `json:"periodEnd" binding:"required"`
	OpeningBalance decimal.Decimal        `json:"openingBalance"`
	ClosingBalance decimal.Decimal        `json:"closingBalance"`
	StatementLines []StatementLineRequest `json:"statementLines" binding:"dive"`
}

// ManualMatchRequest pairs a bank line with a book line.
type ManualMatchRequest struct {
	BankLineID string `json:"bankLineID" binding:"required"`
	BookLineID string `json:"bookLineID" binding:"required"`
	Notes      string `json:"notes"`
}

// UnmatchRequest breaks the pair a line belongs to.
type UnmatchRequest struct {
	LineID string `json:"lineID" binding:"required"`
}

// RecordAdjustmentRequest records an explained discrepancy.
type RecordAdjustmentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Notes           string          `json:"notes" binding:"required,max=500"`
	TransactionDate *time.Time      `json:"transactionDate"`
}
