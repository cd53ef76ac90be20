package dto

import "github.com/shopspring/decimal"

// BudgetLineRequest holds one account's amounts, one per fiscal period in period order.
type BudgetLineRequest struct {
	AccountID string            `json:"accountID" binding:"required"`
	Amounts   []decimal.Decimal `json:"amounts" binding:"required,min=1"`
	Notes     string            `json:"notes"`
}

// CreateBudgetRequest defines a new budget lineage for a fiscal year.
type CreateBudgetRequest struct {
	FiscalYearID string              `json:"fiscalYearID" binding:"required"`
	Name         string              `json:"name" binding:"required,max=255"`
	Description  string              `json:"description"`
	Lines        []BudgetLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateBudgetLinesRequest replaces the lines of a draft budget.
type UpdateBudgetLinesRequest struct {
	Lines []BudgetLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RejectBudgetRequest carries the reviewer's reason.
type RejectBudgetRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ReviseBudgetRequest starts a new version of an approved or rejected budget.
type ReviseBudgetRequest struct {
	Note string `json:"note" binding:"max=500"`
}
