package domain

import (
	"github.com/shopspring/decimal"
)

// AccountCategory defines the fundamental accounting category of an account.
type AccountCategory string

const (
	Asset     AccountCategory = "ASSET"
	Liability AccountCategory = "LIABILITY"
	Equity    AccountCategory = "EQUITY"
	Revenue   AccountCategory = "REVENUE"
	Expense   AccountCategory = "EXPENSE"
)

// IsValid reports whether c is one of the five known categories.
func (c AccountCategory) IsValid() bool {
	switch c {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// DefaultNormalSide is the conventional balance side for the category.
func (c AccountCategory) DefaultNormalSide() NormalSide {
	if c == Asset || c == Expense {
		return Debit
	}
	return Credit
}

// IsIncomeStatement reports whether balances of this category are closed out at year end.
func (c AccountCategory) IsIncomeStatement() bool {
	return c == Revenue || c == Expense
}

// NormalSide is the side on which an account's balance increases.
type NormalSide string

const (
	Debit  NormalSide = "DEBIT"
	Credit NormalSide = "CREDIT"
)

// IsValid reports whether s is DEBIT or CREDIT.
func (s NormalSide) IsValid() bool {
	return s == Debit || s == Credit
}

// Account represents a node in a club's chart of accounts.
// Parent references are by id only; the tree is traversed by lookup.
type Account struct {
	AccountID       string          `json:"accountID"`
	ClubID          string          `json:"clubID"`
	Code            string          `json:"code"` // Unique per club
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        AccountCategory `json:"category"`
	NormalSide      NormalSide      `json:"normalSide"`
	ParentAccountID string          `json:"parentAccountID"` // Empty for roots
	Level           int             `json:"level"`           // Root = 0
	FullPath        string          `json:"fullPath"`        // Ancestor codes joined by "/"
	IsHeader        bool            `json:"isHeader"`        // Aggregation only
	IsBankAccount   bool            `json:"isBankAccount"`
	IsActive        bool            `json:"isActive"`
	IsLocked        bool            `json:"isLocked"`

	// Balance caches. Always derivable from posted lines.
	OpeningBalance    decimal.Decimal `json:"openingBalance"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	YearToDateBalance decimal.Decimal `json:"yearToDateBalance"`
	PriorYearBalance  decimal.Decimal `json:"priorYearBalance"`
	AuditFields
}

// AcceptsPostings reports whether journal lines may reference the account.
func (a Account) AcceptsPostings() bool {
	return !a.IsHeader && a.IsActive
}

// PathSeparator joins account codes in FullPath.
const PathSeparator = "/"

// BalanceDelta is a signed change to an account's balance caches.
type BalanceDelta struct {
	Current    decimal.Decimal
	YearToDate decimal.Decimal
}
