package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
)

// PeriodRange is one explicitly supplied fiscal period.
type PeriodRange struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// CreateFiscalYearRequest defines a fiscal year. Without explicit periods the
// year is split into calendar months.
type CreateFiscalYearRequest struct {
	Name                      string        `json:"name" binding:"required,max=100"`
	StartDate                 time.Time     `json:"startDate" binding:"required"`
	EndDate                   time.Time     `json:"endDate" binding:"required"`
	RetainedEarningsAccountID string        `json:"retainedEarningsAccountID" binding:"required"`
	AllowPostingToClosed      bool          `json:"allowPostingToClosed"`
	Periods                   []PeriodRange `json:"periods" binding:"omitempty,dive"`
}

// ReopenPeriodRequest carries the mandatory reason for reopening a closed period.
type ReopenPeriodRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SetAllowPostingToClosedRequest toggles the closed-period override of a year.
type SetAllowPostingToClosedRequest struct {
	Allow bool `json:"allow"`
}

// PeriodStatusResponse answers "may I post on this date".
type PeriodStatusResponse struct {
	FiscalPeriodID string              `json:"fiscalPeriodID"`
	FiscalYearID   string              `json:"fiscalYearID"`
	Name           string              `json:"name"`
	Status         domain.PeriodStatus `json:"status"`
	StartDate      time.Time           `json:"startDate"`
	EndDate        time.Time           `json:"endDate"`
}

// ToPeriodStatusResponse converts a period to its status summary.
func ToPeriodStatusResponse(p *domain.FiscalPeriod) PeriodStatusResponse {
	return PeriodStatusResponse{
		FiscalPeriodID: p.FiscalPeriodID,
		FiscalYearID:   p.FiscalYearID,
		Name:           p.Name,
		Status:         p.Status,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
	}
}
