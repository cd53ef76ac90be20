package domain

import "github.com/shopspring/decimal"

// TaxRate is a named rate journal lines may reference. The ledger records
// tax detail supplied by callers; it does not compute tax.
type TaxRate struct {
	TaxRateID string          `json:"taxRateID"`
	ClubID    string          `json:"clubID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Rate      decimal.Decimal `json:"rate"` // Fraction, 6 dp (0.150000 = 15%)
	IsActive  bool            `json:"isActive"`
	AuditFields
}
