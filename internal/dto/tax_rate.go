package dto

import "github.com/shopspring/decimal"

// CreateTaxRateRequest registers a tax rate. Rate is a fraction between 0 and 1.
type CreateTaxRateRequest struct {
	Code string          `json:"code" binding:"required,max=32"`
	Name string          `json:"name" binding:"required,max=255"`
	Rate decimal.Decimal `json:"rate" binding:"gte=0,lte=1"`
}
