package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the review state of a budget version.
type BudgetStatus string

const (
	BudgetDraft         BudgetStatus = "DRAFT"
	BudgetPendingReview BudgetStatus = "PENDING_REVIEW"
	BudgetApproved      BudgetStatus = "APPROVED"
	BudgetRejected      BudgetStatus = "REJECTED"
)

// Budget is one version in an immutable chain of budget versions for a fiscal year.
// LineageID is the id of version 1 and is shared by every version in the chain.
type Budget struct {
	BudgetID           string          `json:"budgetID"`
	ClubID             string          `json:"clubID"`
	FiscalYearID       string          `json:"fiscalYearID"`
	LineageID          string          `json:"lineageID"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Version            int             `json:"version"`
	PreviousVersionID  string          `json:"previousVersionID"`
	IsLatestVersion    bool            `json:"isLatestVersion"`
	Status             BudgetStatus    `json:"status"`
	TotalBudgeted      decimal.Decimal `json:"totalBudgeted"`
	TotalActual        decimal.Decimal `json:"totalActual"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercent    decimal.Decimal `json:"variancePercent"`
	RevisionNote       string          `json:"revisionNote"`
	SubmittedBy        string          `json:"submittedBy"`
	ApprovedBy         string          `json:"approvedBy"`
	ApprovedAt         *time.Time      `json:"approvedAt"`
	RejectedBy         string          `json:"rejectedBy"`
	RejectionReason    string          `json:"rejectionReason"`
	ActualsRefreshedAt *time.Time      `json:"actualsRefreshedAt"`
	Lines              []BudgetLine    `json:"lines"`
	AuditFields
}

// BudgetLine holds one account's slots for a budget version.
type BudgetLine struct {
	BudgetLineID    string          `json:"budgetLineID"`
	BudgetID        string          `json:"budgetID"`
	AccountID       string          `json:"accountID"`
	Notes           string          `json:"notes"`
	Slots           []BudgetSlot    `json:"slots"` // One per fiscal period, ordered by PeriodNumber
	TotalBudgeted   decimal.Decimal `json:"totalBudgeted"`
	TotalActual     decimal.Decimal `json:"totalActual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variancePercent"`
	IsOverBudget    bool            `json:"isOverBudget"`
}

// BudgetSlot is the budgeted and actual amount of one sub-period.
type BudgetSlot struct {
	PeriodNumber int             `json:"periodNumber"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Actual       decimal.Decimal `json:"actual"`
}

// BudgetVarianceReport compares an approved budget with ledger actuals per account.
type BudgetVarianceReport struct {
	BudgetID           string               `json:"budgetID"`
	FiscalYearID       string               `json:"fiscalYearID"`
	Version            int                  `json:"version"`
	TotalBudgeted      decimal.Decimal      `json:"totalBudgeted"`
	TotalActual        decimal.Decimal      `json:"totalActual"`
	Variance           decimal.Decimal      `json:"variance"`
	VariancePercent    decimal.Decimal      `json:"variancePercent"`
	OverBudgetAccounts int                  `json:"overBudgetAccounts"`
	ActualsRefreshedAt *time.Time           `json:"actualsRefreshedAt"`
	Lines              []BudgetVarianceLine `json:"lines"`
}

// BudgetVarianceLine is one account's row of a variance report.
type BudgetVarianceLine struct {
	AccountID       string          `json:"accountID"`
	AccountCode     string          `json:"accountCode"`
	AccountName     string          `json:"accountName"`
	Budgeted        decimal.Decimal `json:"budgeted"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variancePercent"`
	IsOverBudget    bool            `json:"isOverBudget"`
}
