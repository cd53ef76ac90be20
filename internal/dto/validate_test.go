package dto

import (
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidate_DecimalBounds(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{"rate inside range", CreateTaxRateRequest{Code: "VAT", Name: "Standard", Rate: decimal.RequireFromString("0.2")}, false},
		{"zero rate", CreateTaxRateRequest{Code: "EXEMPT", Name: "Exempt"}, false},
		{"rate above one", CreateTaxRateRequest{Code: "VAT", Name: "Standard", Rate: decimal.RequireFromString("1.5")}, true},
		{"negative rate", CreateTaxRateRequest{Code: "VAT", Name: "Standard", Rate: decimal.RequireFromString("-0.1")}, true},
		{"positive debit", JournalLineRequest{AccountID: "a", Debit: decimal.RequireFromString("10.00")}, false},
		{"negative credit", JournalLineRequest{AccountID: "a", Credit: decimal.RequireFromString("-10.00")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_DivesIntoEntryLines(t *testing.T) {
	req := CreateJournalEntryRequest{
		EntryDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:  "Hall hire",
		CurrencyCode: "GBP",
		Lines: []JournalLineRequest{
			{AccountID: "a", Debit: decimal.RequireFromString("5.00")},
			{AccountID: "b", Credit: decimal.RequireFromString("-5.00")},
		},
	}
	err := Validate(req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Lines[1].Credit")
}
