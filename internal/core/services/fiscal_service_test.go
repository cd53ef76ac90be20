package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type FiscalServiceTestSuite struct {
	ledgerSuite
}

func TestFiscalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FiscalServiceTestSuite))
}

func (s *FiscalServiceTestSuite) closeAll() {
	for i := 1; i <= 12; i++ {
		_, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(i).FiscalPeriodID, testActor)
		s.Require().NoError(err)
	}
}

func (s *FiscalServiceTestSuite) TestCreateFiscalYear_MonthlyPeriods() {
	s.Require().Len(s.year.Periods, 12)
	s.Equal(date(1, 1), s.year.Periods[0].StartDate)
	s.Equal(date(1, 31), s.year.Periods[0].EndDate)
	s.Equal(date(2, 28), s.year.Periods[1].EndDate)
	s.Equal(date(12, 31), s.year.Periods[11].EndDate)
	s.Equal("Jan 2025", s.year.Periods[0].Name)
	for _, p := range s.year.Periods {
		s.Equal(domain.PeriodOpen, p.Status)
	}
	s.Equal(domain.YearOpen, s.year.Status)
}

func (s *FiscalServiceTestSuite) TestCreateFiscalYear_Rejections() {
	_, err := s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name: "Overlap", StartDate: date(7, 1), EndDate: date(7, 1).AddDate(1, 0, -1), RetainedEarningsAccountID: s.retained.AccountID,
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name: "FY2026", StartDate: date(1, 1).AddDate(1, 0, 0), EndDate: date(12, 31).AddDate(1, 0, 0),
		RetainedEarningsAccountID: s.revenue.AccountID,
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation, "retained earnings must be equity")

	_, err = s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name: "FY2026", StartDate: date(1, 1).AddDate(1, 0, 0), EndDate: date(12, 31).AddDate(1, 0, 0),
		RetainedEarningsAccountID: s.retained.AccountID,
		Periods: []dto.PeriodRange{
			{StartDate: date(1, 1).AddDate(1, 0, 0), EndDate: date(6, 30).AddDate(1, 0, 0)},
			{StartDate: date(7, 2).AddDate(1, 0, 0), EndDate: date(12, 31).AddDate(1, 0, 0)},
		},
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation, "gap between periods")
}

func (s *FiscalServiceTestSuite) TestCreateFiscalYear_ExplicitPeriods() {
	year, err := s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name: "FY2026", StartDate: date(1, 1).AddDate(1, 0, 0), EndDate: date(12, 31).AddDate(1, 0, 0),
		RetainedEarningsAccountID: s.retained.AccountID,
		Periods: []dto.PeriodRange{
			{Name: "H2", StartDate: date(7, 1).AddDate(1, 0, 0), EndDate: date(12, 31).AddDate(1, 0, 0)},
			{StartDate: date(1, 1).AddDate(1, 0, 0), EndDate: date(6, 30).AddDate(1, 0, 0)},
		},
	}, testActor)
	s.Require().NoError(err)
	s.Require().Len(year.Periods, 2)
	s.Equal("P01", year.Periods[0].Name)
	s.Equal("H2", year.Periods[1].Name)

	years, err := s.svc.Fiscal.ListFiscalYears(s.ctx, testClub)
	s.Require().NoError(err)
	s.Len(years, 2)
}

func (s *FiscalServiceTestSuite) TestCloseReopenAndRepost() {
	march := s.period(3)
	closed, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, march.FiscalPeriodID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosed, closed.Status)
	s.Equal(testActor, closed.ClosedBy)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen)

	_, err = s.svc.Fiscal.ReopenPeriod(s.ctx, testClub, march.FiscalPeriodID, "", testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	reopened, err := s.svc.Fiscal.ReopenPeriod(s.ctx, testClub, march.FiscalPeriodID, "late invoice", "auditor")
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, reopened.Status)
	s.Equal("late invoice", reopened.ReopenReason)
	s.Equal("auditor", reopened.ReopenedBy)

	s.record(date(3, 10), s.cash, s.revenue, "10.00")

	records, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityFiscalPeriod, march.FiscalPeriodID)
	s.Require().NoError(err)
	var found bool
	for _, r := range records {
		if r.Action == domain.ActionReopen {
			found = true
			s.Equal("late invoice", r.Reason)
			s.Equal("auditor", r.Actor)
		}
	}
	s.True(found, "reopen must be audited")

	_, err = s.svc.Fiscal.ReopenPeriod(s.ctx, testClub, march.FiscalPeriodID, "again", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *FiscalServiceTestSuite) TestOverrideClosedPeriod() {
	feb := s.period(2)
	_, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, feb.FiscalPeriodID, testActor)
	s.Require().NoError(err)
	req := s.entryRequest(date(2, 10), s.cash, s.revenue, "10.00", "10.00")

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{OverrideClosedPeriod: true}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen, "the year does not allow it yet")

	year, err := s.svc.Fiscal.SetAllowPostingToClosed(s.ctx, testClub, s.year.FiscalYearID, true, testActor)
	s.Require().NoError(err)
	s.True(year.AllowPostingToClosed)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen, "override must be asserted")

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{OverrideClosedPeriod: true}, testActor)
	s.Require().NoError(err)

	refrozen := s.period(2)
	s.Equal(domain.PeriodClosed, refrozen.Status)
	s.assertMoney("10.00", refrozen.TotalDebits)
	s.assertMoney("10.00", refrozen.TotalCredits)
	s.assertMoney("10.00", refrozen.TotalRevenue)
	s.assertMoney("10.00", refrozen.NetIncome)
	records, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityFiscalPeriod, feb.FiscalPeriodID)
	s.Require().NoError(err)
	s.Equal(domain.ActionUpdate, records[len(records)-1].Action)

	locked, err := s.svc.Fiscal.LockPeriod(s.ctx, testClub, feb.FiscalPeriodID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.PeriodLocked, locked.Status)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{OverrideClosedPeriod: true}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen)

	_, err = s.svc.Fiscal.ReopenPeriod(s.ctx, testClub, feb.FiscalPeriodID, "oops", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition, "locked periods stay locked")
}

func (s *FiscalServiceTestSuite) TestLockRequiresClosed() {
	_, err := s.svc.Fiscal.LockPeriod(s.ctx, testClub, s.period(4).FiscalPeriodID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *FiscalServiceTestSuite) TestSingleCurrentPeriod() {
	_, err := s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, s.period(2).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	current, err := s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, s.period(3).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.PeriodCurrent, current.Status)

	var currents int
	year, err := s.svc.Fiscal.GetFiscalYear(s.ctx, testClub, s.year.FiscalYearID)
	s.Require().NoError(err)
	for _, p := range year.Periods {
		if p.Status == domain.PeriodCurrent {
			currents++
			s.Equal(3, p.PeriodNumber)
		}
	}
	s.Equal(1, currents)
	s.Equal(domain.PeriodOpen, s.period(2).Status)

	status, err := s.svc.Fiscal.GetPeriodStatus(s.ctx, testClub, date(3, 20))
	s.Require().NoError(err)
	s.Equal(domain.PeriodCurrent, status.Status)

	s.record(date(3, 20), s.cash, s.revenue, "5.00")

	_, err = s.svc.Fiscal.GetPeriodStatus(s.ctx, testClub, date(3, 20).AddDate(2, 0, 0))
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(1).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	_, err = s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, s.period(1).FiscalPeriodID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *FiscalServiceTestSuite) TestClosePeriod_FreezesTotals() {
	s.record(date(3, 5), s.cash, s.revenue, "100.00")
	s.record(date(3, 6), s.expense, s.cash, "40.00")
	s.record(date(4, 6), s.expense, s.cash, "7.00")

	closed, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(3).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	s.assertMoney("140.00", closed.TotalDebits)
	s.assertMoney("140.00", closed.TotalCredits)
	s.assertMoney("100.00", closed.TotalRevenue)
	s.assertMoney("40.00", closed.TotalExpenses)
	s.assertMoney("60.00", closed.NetIncome)
	s.NotNil(closed.ClosedAt)

	_, err = s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(3).FiscalPeriodID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *FiscalServiceTestSuite) TestCloseYear_RollsIntoRetainedEarnings() {
	s.record(date(1, 15), s.cash, s.revenue, "100.00")
	s.record(date(2, 15), s.expense, s.cash, "40.00")
	s.closeAll()

	closed, err := s.svc.Fiscal.CloseYear(s.ctx, testClub, s.year.FiscalYearID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.YearClosed, closed.Status)
	s.Require().NotEmpty(closed.ClosingEntryID)
	s.NotNil(closed.ClosedAt)

	s.assertMoney("0", s.balance(s.revenue, date(12, 31)))
	s.assertMoney("0", s.balance(s.expense, date(12, 31)))
	s.assertMoney("60.00", s.balance(s.retained, date(12, 31)))
	s.assertMoney("1060.00", s.balance(s.cash, date(12, 31)))

	closing, err := s.svc.Journal.GetEntry(s.ctx, testClub, closed.ClosingEntryID)
	s.Require().NoError(err)
	s.Equal(domain.SourceYearClose, closing.Source)
	s.Equal(date(12, 31), closing.EntryDate)
	s.assertMoney("100.00", closing.TotalDebit)
	s.assertMoney("100.00", closing.TotalCredit)

	revenue, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.revenue.AccountID)
	s.Require().NoError(err)
	s.assertMoney("0", revenue.CurrentBalance)
	s.assertMoney("0", revenue.YearToDateBalance)
	s.assertMoney("100.00", revenue.PriorYearBalance)

	cash, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	s.assertMoney("1060.00", cash.CurrentBalance)
	s.assertMoney("0", cash.YearToDateBalance)
	s.assertMoney("1060.00", cash.PriorYearBalance)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(6, 1), s.cash, s.revenue, "1.00", "1.00"), portssvc.PostOptions{OverrideClosedPeriod: true}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen)

	_, err = s.svc.Fiscal.CloseYear(s.ctx, testClub, s.year.FiscalYearID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Fiscal.ReopenPeriod(s.ctx, testClub, s.period(12).FiscalPeriodID, "reopen", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *FiscalServiceTestSuite) TestCloseYear_WithoutActivity() {
	s.closeAll()
	closed, err := s.svc.Fiscal.CloseYear(s.ctx, testClub, s.year.FiscalYearID, testActor)
	s.Require().NoError(err)
	s.Empty(closed.ClosingEntryID)
	s.Equal(domain.YearClosed, closed.Status)
}

func (s *FiscalServiceTestSuite) TestCloseYear_EntriesOfClosedYearCannotBeVoided() {
	feeID := s.record(date(1, 15), s.cash, s.revenue, "100.00")
	s.closeAll()
	closed, err := s.svc.Fiscal.CloseYear(s.ctx, testClub, s.year.FiscalYearID, testActor)
	s.Require().NoError(err)
	s.Require().NotEmpty(closed.ClosingEntryID)

	next, err := s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name:                      "FY2026",
		StartDate:                 time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		RetainedEarningsAccountID: s.retained.AccountID,
	}, testActor)
	s.Require().NoError(err)
	_, err = s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, next.Periods[0].FiscalPeriodID, testActor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Void(s.ctx, testClub, closed.ClosingEntryID, "undo close", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	_, err = s.svc.Journal.Void(s.ctx, testClub, feeID, "refund", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Journal.FindReversal(s.ctx, testClub, closed.ClosingEntryID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	endOf2026 := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	s.assertMoney("0", s.balance(s.revenue, endOf2026))
	s.assertMoney("100.00", s.balance(s.retained, endOf2026))

	year, err := s.svc.Fiscal.GetFiscalYear(s.ctx, testClub, s.year.FiscalYearID)
	s.Require().NoError(err)
	s.Equal(domain.YearClosed, year.Status)
	s.Equal(closed.ClosingEntryID, year.ClosingEntryID)
}

func (s *FiscalServiceTestSuite) TestCloseYear_RequiresClosedPeriods() {
	_, err := s.svc.Fiscal.CloseYear(s.ctx, testClub, s.year.FiscalYearID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	year, err := s.svc.Fiscal.GetFiscalYear(s.ctx, testClub, s.year.FiscalYearID)
	s.Require().NoError(err)
	s.Equal(domain.YearOpen, year.Status)
}
