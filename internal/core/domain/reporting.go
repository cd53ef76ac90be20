package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one posting account's balance, shown on the debit or credit side.
type TrialBalanceRow struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  AccountCategory `json:"category"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// TrialBalance lists every non-zero posting account as of a date.
// Totals are rebuilt from posted lines, never from cached balances.
type TrialBalance struct {
	ClubID      string            `json:"clubID"`
	AsOf        time.Time         `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	IsBalanced  bool              `json:"isBalanced"`
}
