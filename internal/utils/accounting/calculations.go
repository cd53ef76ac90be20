package accounting

import (
	"fmt"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AmountPlaces is the fixed-point precision of currency amounts.
const AmountPlaces = 2

// RatePlaces is the fixed-point precision of tax rates.
const RatePlaces = 6

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// HasAmountPrecision reports whether d carries no more than two decimal places.
func HasAmountPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountPlaces))
}

// ValidateLine checks that exactly one side of a line carries a positive amount
// at currency precision.
func ValidateLine(line domain.JournalEntryLine) error {
	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrValidation, line.LineNumber)
	}
	if line.Debit.IsZero() == line.Credit.IsZero() {
		return fmt.Errorf("%w: line %d must have exactly one of debit or credit", apperrors.ErrValidation, line.LineNumber)
	}
	if !HasAmountPrecision(line.Debit) || !HasAmountPrecision(line.Credit) {
		return fmt.Errorf("%w: line %d amount exceeds %d decimal places", apperrors.ErrValidation, line.LineNumber, AmountPlaces)
	}
	if line.TaxAmount.IsNegative() || !HasAmountPrecision(line.TaxAmount) {
		return fmt.Errorf("%w: line %d tax amount must be non-negative with at most %d decimal places", apperrors.ErrValidation, line.LineNumber, AmountPlaces)
	}
	return nil
}

// SignedAmount applies the account's normal-balance convention to a line.
// A debit to a debit-normal account is positive, a credit to it negative, and
// the reverse for credit-normal accounts.
func SignedAmount(line domain.JournalEntryLine, side domain.NormalSide) (decimal.Decimal, error) {
	switch side {
	case domain.Debit:
		return line.Debit.Sub(line.Credit), nil
	case domain.Credit:
		return line.Credit.Sub(line.Debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown normal side '%s' for account %s", side, line.AccountID)
	}
}

// ConvertSide re-expresses a balance held in one sign convention in another.
func ConvertSide(amount decimal.Decimal, from, to domain.NormalSide) decimal.Decimal {
	if from == to {
		return amount
	}
	return amount.Neg()
}

// Totals sums debits and credits at currency precision.
func Totals(lines []domain.JournalEntryLine) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(Round(l.Debit))
		credit = credit.Add(Round(l.Credit))
	}
	return debit, credit
}

// ValidateBalance checks that debits equal credits exactly at currency precision.
func ValidateBalance(lines []domain.JournalEntryLine) error {
	debit, credit := Totals(lines)
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debits %s, credits %s, difference %s",
			apperrors.ErrUnbalanced, debit.StringFixed(AmountPlaces), credit.StringFixed(AmountPlaces), debit.Sub(credit).StringFixed(AmountPlaces))
	}
	return nil
}

// BalanceDeltas computes the signed change each line set makes to its accounts.
// accounts must contain every referenced account.
func BalanceDeltas(lines []domain.JournalEntryLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(accounts))
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, l.AccountID)
		}
		signed, err := SignedAmount(l, acc.NormalSide)
		if err != nil {
			return nil, err
		}
		deltas[l.AccountID] = deltas[l.AccountID].Add(signed)
	}
	return deltas, nil
}

// SwapSides returns copies of lines with debit and credit exchanged.
func SwapSides(lines []domain.JournalEntryLine) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		l.Debit, l.Credit = l.Credit, l.Debit
		out[i] = l
	}
	return out
}

// VariancePercent is variance as a percentage of budgeted, rounded to two places.
// It is zero when nothing was budgeted.
func VariancePercent(variance, budgeted decimal.Decimal) decimal.Decimal {
	if budgeted.IsZero() {
		return decimal.Zero
	}
	return variance.Div(budgeted.Abs()).Mul(hundred).Round(AmountPlaces)
}
