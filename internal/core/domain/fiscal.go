package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "OPEN"
	PeriodCurrent PeriodStatus = "CURRENT"
	PeriodClosed  PeriodStatus = "CLOSED"
	PeriodLocked  PeriodStatus = "LOCKED"
)

// AcceptsPostings reports whether ordinary postings may land in a period with this status.
func (s PeriodStatus) AcceptsPostings() bool {
	return s == PeriodOpen || s == PeriodCurrent
}

// IsClosed reports whether the period has been closed, locked included.
func (s PeriodStatus) IsClosed() bool {
	return s == PeriodClosed || s == PeriodLocked
}

// YearStatus is the lifecycle state of a fiscal year.
type YearStatus string

const (
	YearOpen   YearStatus = "OPEN"
	YearClosed YearStatus = "CLOSED"
)

// FiscalYear groups the contiguous periods that partition it.
type FiscalYear struct {
	FiscalYearID              string         `json:"fiscalYearID"`
	ClubID                    string         `json:"clubID"`
	Name                      string         `json:"name"`
	StartDate                 time.Time      `json:"startDate"`
	EndDate                   time.Time      `json:"endDate"` // Inclusive
	Status                    YearStatus     `json:"status"`
	AllowPostingToClosed      bool           `json:"allowPostingToClosed"`
	RetainedEarningsAccountID string         `json:"retainedEarningsAccountID"`
	ClosingEntryID            string         `json:"closingEntryID"`
	ClosedAt                  *time.Time     `json:"closedAt"`
	ClosedBy                  string         `json:"closedBy"`
	Periods                   []FiscalPeriod `json:"periods"` // Ordered by PeriodNumber
	AuditFields
}

// Contains reports whether date falls inside the year.
func (y FiscalYear) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(y.StartDate) && !d.After(y.EndDate)
}

// FiscalPeriod is one slice of a fiscal year.
type FiscalPeriod struct {
	FiscalPeriodID string       `json:"fiscalPeriodID"`
	ClubID         string       `json:"clubID"`
	FiscalYearID   string       `json:"fiscalYearID"`
	PeriodNumber   int          `json:"periodNumber"` // 1-based
	Name           string       `json:"name"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"` // Inclusive
	Status         PeriodStatus `json:"status"`

	// Frozen when the period closes.
	TotalDebits   decimal.Decimal `json:"totalDebits"`
	TotalCredits  decimal.Decimal `json:"totalCredits"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`

	ClosedAt     *time.Time `json:"closedAt"`
	ClosedBy     string     `json:"closedBy"`
	ReopenedAt   *time.Time `json:"reopenedAt"`
	ReopenedBy   string     `json:"reopenedBy"`
	ReopenReason string     `json:"reopenReason"`
	LockedAt     *time.Time `json:"lockedAt"`
	LockedBy     string     `json:"lockedBy"`
	AuditFields
}

// Contains reports whether date falls inside the period.
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
