package services_test

import (
	"sync"
	"testing"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type JournalServiceTestSuite struct {
	ledgerSuite
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (s *JournalServiceTestSuite) TestRecordEntry_IncreasesBothNormalSides() {
	cashBefore := s.balance(s.cash, date(3, 31))
	revenueBefore := s.balance(s.revenue, date(3, 31))

	id := s.record(date(3, 10), s.cash, s.revenue, "100.00")

	s.assertMoney(cashBefore.Add(money("100.00")).String(), s.balance(s.cash, date(3, 31)))
	s.assertMoney(revenueBefore.Add(money("100.00")).String(), s.balance(s.revenue, date(3, 31)))

	entry, err := s.svc.Journal.GetEntry(s.ctx, testClub, id)
	s.Require().NoError(err)
	s.Equal(domain.EntryPosted, entry.Status)
	s.Equal("JE-000001", entry.EntryNumber)
	s.Equal(s.period(3).FiscalPeriodID, entry.FiscalPeriodID)
	s.Require().Len(entry.Lines, 2)
	s.Equal(1, entry.Lines[0].LineNumber)
	s.Equal(2, entry.Lines[1].LineNumber)

	cash, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	s.assertMoney("1100.00", cash.CurrentBalance)
	s.assertMoney("100.00", cash.YearToDateBalance)
}

func (s *JournalServiceTestSuite) TestRecordEntry_UnbalancedChangesNothing() {
	_, err := s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "100.00", "99.99"), portssvc.PostOptions{}, testActor)

	s.ErrorIs(err, apperrors.ErrUnbalanced)
	s.ErrorIs(err, apperrors.ErrInvariant)
	s.assertMoney("1000.00", s.balance(s.cash, date(3, 31)))
	s.assertMoney("0", s.balance(s.revenue, date(3, 31)))

	page, err := s.svc.Journal.ListEntries(s.ctx, testClub, dto.ListJournalEntriesParams{Limit: 20})
	s.Require().NoError(err)
	s.Empty(page.Entries, "the rejected entry must not be stored")
}

func (s *JournalServiceTestSuite) TestRecordEntry_RejectsBadLines() {
	req := s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00")
	req.Lines = nil
	_, err := s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrEmptyEntry)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.assets, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrUnknownAccount, "header accounts take no postings")

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "10.001", "10.001"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	req = s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00")
	req.Lines[0].Credit = money("1.00")
	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation, "a line carries exactly one side")

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, "")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *JournalServiceTestSuite) TestRecordEntry_OutsideCalendar() {
	_, err := s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10).AddDate(1, 0, 0), s.cash, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen)
}

func (s *JournalServiceTestSuite) TestTaxRateMustBeActive() {
	rate, err := s.svc.TaxRate.CreateTaxRate(s.ctx, testClub, dto.CreateTaxRateRequest{Code: "VAT", Name: "Standard", Rate: money("0.2")}, testActor)
	s.Require().NoError(err)
	s.assertMoney("0.200000", rate.Rate)

	req := s.entryRequest(date(3, 10), s.cash, s.revenue, "120.00", "120.00")
	req.Lines[1].TaxRateID = rate.TaxRateID
	req.Lines[1].TaxAmount = money("20.00")
	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{}, testActor)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.TaxRate.DeactivateTaxRate(s.ctx, testClub, rate.TaxRateID, testActor))
	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, req, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.TaxRate.CreateTaxRate(s.ctx, testClub, dto.CreateTaxRateRequest{Code: "VAT", Name: "Again", Rate: money("0.1")}, testActor)
	s.ErrorIs(err, apperrors.ErrDuplicateCode)
}

func (s *JournalServiceTestSuite) TestDraftSubmitPost() {
	draft, err := s.svc.Journal.CreateDraft(s.ctx, testClub, s.entryRequest(date(3, 12), s.expense, s.cash, "40.00", "40.00"), testActor)
	s.Require().NoError(err)
	s.Equal(domain.EntryDraft, draft.Status)
	s.assertMoney("1000.00", s.balance(s.cash, date(3, 31)), "drafts do not move balances")

	submitted, err := s.svc.Journal.SubmitForApproval(s.ctx, testClub, draft.EntryID, "clerk")
	s.Require().NoError(err)
	s.Equal(domain.EntryPendingApproval, submitted.Status)
	s.Equal("clerk", submitted.SubmittedBy)

	_, err = s.svc.Journal.SubmitForApproval(s.ctx, testClub, draft.EntryID, "clerk")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	posted, err := s.svc.Journal.Post(s.ctx, testClub, draft.EntryID, portssvc.PostOptions{}, testActor)
	s.Require().NoError(err)
	s.Equal(domain.EntryPosted, posted.Status)
	s.Equal(testActor, posted.PostedBy)
	s.assertMoney("960.00", s.balance(s.cash, date(3, 31)))
	s.assertMoney("40.00", s.balance(s.expense, date(3, 31)))

	_, err = s.svc.Journal.Post(s.ctx, testClub, draft.EntryID, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *JournalServiceTestSuite) TestUnbalancedDraftCannotBePosted() {
	draft, err := s.svc.Journal.CreateDraft(s.ctx, testClub, s.entryRequest(date(3, 12), s.expense, s.cash, "40.00", "39.00"), testActor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Post(s.ctx, testClub, draft.EntryID, portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)

	entry, err := s.svc.Journal.GetEntry(s.ctx, testClub, draft.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.EntryDraft, entry.Status)
}

func (s *JournalServiceTestSuite) TestVoid_ReversesAndRestoresBalances() {
	cashBefore := s.balance(s.cash, date(3, 31))
	revenueBefore := s.balance(s.revenue, date(3, 31))

	id := s.record(date(3, 10), s.cash, s.revenue, "100.00")
	reversalID, err := s.svc.Journal.Void(s.ctx, testClub, id, "duplicate payment", testActor)
	s.Require().NoError(err)

	s.assertMoney(cashBefore.String(), s.balance(s.cash, date(3, 31)))
	s.assertMoney(revenueBefore.String(), s.balance(s.revenue, date(3, 31)))

	original, err := s.svc.Journal.GetEntry(s.ctx, testClub, id)
	s.Require().NoError(err)
	s.Equal(domain.EntryVoided, original.Status)
	s.Equal("duplicate payment", original.VoidReason)

	reversal, err := s.svc.Journal.GetEntry(s.ctx, testClub, reversalID)
	s.Require().NoError(err)
	s.Equal(domain.EntryPosted, reversal.Status)
	s.Equal(id, reversal.ReversedFromID)
	s.Equal(domain.SourceReversal, reversal.Source)
	s.Equal(original.EntryDate, reversal.EntryDate, "the original period is still open")
	s.Require().Len(reversal.Lines, len(original.Lines))
	for i := range original.Lines {
		s.Equal(original.Lines[i].AccountID, reversal.Lines[i].AccountID)
		s.True(original.Lines[i].Debit.Equal(reversal.Lines[i].Credit))
		s.True(original.Lines[i].Credit.Equal(reversal.Lines[i].Debit))
	}

	found, err := s.svc.Journal.FindReversal(s.ctx, testClub, id)
	s.Require().NoError(err)
	s.Equal(reversalID, found.EntryID)

	_, err = s.svc.Journal.Void(s.ctx, testClub, id, "again", testActor)
	s.ErrorIs(err, apperrors.ErrAlreadyReversed)

	_, err = s.svc.Journal.Void(s.ctx, testClub, reversalID, "undo", testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Journal.Void(s.ctx, testClub, id, "", testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *JournalServiceTestSuite) TestVoid_ClosedPeriodReversesIntoCurrent() {
	id := s.record(date(2, 10), s.cash, s.revenue, "100.00")
	_, err := s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, s.period(3).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	_, err = s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(2).FiscalPeriodID, testActor)
	s.Require().NoError(err)

	reversalID, err := s.svc.Journal.Void(s.ctx, testClub, id, "wrong member", testActor)
	s.Require().NoError(err)

	reversal, err := s.svc.Journal.GetEntry(s.ctx, testClub, reversalID)
	s.Require().NoError(err)
	s.Equal(date(3, 15), reversal.EntryDate, "clock date inside the CURRENT period")
	s.Equal(s.period(3).FiscalPeriodID, reversal.FiscalPeriodID)
	s.assertMoney("1000.00", s.balance(s.cash, date(3, 31)))
	s.assertMoney("1100.00", s.balance(s.cash, date(2, 28)), "history before the reversal is untouched")
}

func (s *JournalServiceTestSuite) TestVoid_ClosedPeriodWithoutCurrentFails() {
	id := s.record(date(2, 10), s.cash, s.revenue, "100.00")
	_, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(2).FiscalPeriodID, testActor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.Void(s.ctx, testClub, id, "wrong member", testActor)
	s.ErrorIs(err, apperrors.ErrPeriodNotOpen)
}

func (s *JournalServiceTestSuite) TestLockedAccountRejectsPosting() {
	_, err := s.svc.Account.LockAccount(s.ctx, testClub, s.cash.AccountID, testActor)
	s.Require().NoError(err)

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrAccountLocked)

	_, err = s.svc.Account.UnlockAccount(s.ctx, testClub, s.cash.AccountID, testActor)
	s.Require().NoError(err)
	s.record(date(3, 10), s.cash, s.revenue, "10.00")
}

func (s *JournalServiceTestSuite) TestBalanceIsRebuiltFromLines() {
	s.record(date(1, 5), s.cash, s.revenue, "250.00")
	s.record(date(2, 5), s.expense, s.cash, "75.50")
	s.record(date(3, 5), s.cash, s.revenue, "20.25")

	cash, err := s.db.Accounts().FindAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	cash.CurrentBalance = money("999999.99")
	s.Require().NoError(s.db.Accounts().UpdateAccount(s.ctx, *cash))

	s.assertMoney("1194.75", s.balance(s.cash, date(3, 31)))
	s.assertMoney("1174.50", s.balance(s.cash, date(2, 28)), "asOf excludes later lines")
	s.assertMoney("1000.00", s.balance(s.cash, date(1, 4)))
}

func (s *JournalServiceTestSuite) TestConcurrentPostingKeepsCachesConsistent() {
	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Journal.RecordEntry(s.ctx, testClub,
				s.entryRequest(date(3, 10), s.cash, s.revenue, "1.00", "1.00"), portssvc.PostOptions{}, testActor)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	cash, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	s.assertMoney("1020.00", cash.CurrentBalance)
	s.assertMoney("1020.00", s.balance(s.cash, date(3, 31)))
}

func (s *JournalServiceTestSuite) TestListEntries_Paginates() {
	for i := 1; i <= 3; i++ {
		s.record(date(3, i), s.cash, s.revenue, "1.00")
	}
	first, err := s.svc.Journal.ListEntries(s.ctx, testClub, dto.ListJournalEntriesParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(first.Entries, 2)
	s.Require().NotNil(first.NextToken)

	second, err := s.svc.Journal.ListEntries(s.ctx, testClub, dto.ListJournalEntriesParams{Limit: 2, NextToken: *first.NextToken})
	s.Require().NoError(err)
	s.Len(second.Entries, 1)
	s.Nil(second.NextToken)
}

func (s *JournalServiceTestSuite) TestTenantScoping() {
	id := s.record(date(3, 10), s.cash, s.revenue, "10.00")

	_, err := s.svc.Journal.GetEntry(s.ctx, otherClub, id)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Journal.RecordEntry(s.ctx, otherClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "10.00", "10.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	_, err = s.svc.Account.GetBalance(s.ctx, otherClub, s.cash.AccountID, date(3, 31))
	s.ErrorIs(err, apperrors.ErrNotFound)
}
