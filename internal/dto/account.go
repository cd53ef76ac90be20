package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string                 `json:"code" binding:"required,max=32"`
	Name            string                 `json:"name" binding:"required,max=255"`
	Description     string                 `json:"description"`
	Category        domain.AccountCategory `json:"category" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalSide      domain.NormalSide      `json:"normalSide" binding:"omitempty,oneof=DEBIT CREDIT"` // Defaults from category
	ParentAccountID string                 `json:"parentAccountID"`                                   // Optional, empty for a root
	IsHeader        bool                   `json:"isHeader"`
	IsBankAccount   bool                   `json:"isBankAccount"`
	OpeningBalance  decimal.Decimal        `json:"openingBalance"`
}

// MoveAccountRequest re-parents an account. An empty parent makes it a root.
type MoveAccountRequest struct {
	ParentAccountID string `json:"parentAccountID"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID         string                 `json:"accountID"`
	Code              string                 `json:"code"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	Category          domain.AccountCategory `json:"category"`
	NormalSide        domain.NormalSide      `json:"normalSide"`
	ParentAccountID   string                 `json:"parentAccountID"`
	Level             int                    `json:"level"`
	FullPath          string                 `json:"fullPath"`
	IsHeader          bool                   `json:"isHeader"`
	IsBankAccount     bool                   `json:"isBankAccount"`
	IsActive          bool                   `json:"isActive"`
	IsLocked          bool                   `json:"isLocked"`
	OpeningBalance    decimal.Decimal        `json:"openingBalance"`
	CurrentBalance    decimal.Decimal        `json:"currentBalance"`
	YearToDateBalance decimal.Decimal        `json:"yearToDateBalance"`
	PriorYearBalance  decimal.Decimal        `json:"priorYearBalance"`
	CreatedAt         time.Time              `json:"createdAt"`
	CreatedBy         string                 `json:"createdBy"`
	LastUpdatedAt     time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy     string                 `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:         acc.AccountID,
		Code:              acc.Code,
		Name:              acc.Name,
		Description:       acc.Description,
		Category:          acc.Category,
		NormalSide:        acc.NormalSide,
		ParentAccountID:   acc.ParentAccountID,
		Level:             acc.Level,
		FullPath:          acc.FullPath,
		IsHeader:          acc.IsHeader,
		IsBankAccount:     acc.IsBankAccount,
		IsActive:          acc.IsActive,
		IsLocked:          acc.IsLocked,
		OpeningBalance:    acc.OpeningBalance,
		CurrentBalance:    acc.CurrentBalance,
		YearToDateBalance: acc.YearToDateBalance,
		PriorYearBalance:  acc.PriorYearBalance,
		CreatedAt:         acc.CreatedAt,
		CreatedBy:         acc.CreatedBy,
		LastUpdatedAt:     acc.LastUpdatedAt,
		LastUpdatedBy:     acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID  string            `json:"accountID"`
	AsOf       time.Time         `json:"asOf"`
	NormalSide domain.NormalSide `json:"normalSide"`
	Balance    decimal.Decimal   `json:"balance"`
}
