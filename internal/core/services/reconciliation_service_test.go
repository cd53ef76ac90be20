package services_test

import (
	"testing"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	ledgerSuite
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

// SetupTest books a 250.00 deposit on 5 March and a 50.00 withdrawal on 20 March.
func (s *ReconciliationServiceTestSuite) SetupTest() {
	s.ledgerSuite.SetupTest()
	s.record(date(3, 5), s.cash, s.revenue, "250.00")
	s.record(date(3, 20), s.expense, s.cash, "50.00")
}

func (s *ReconciliationServiceTestSuite) start(closing string, lines ...dto.StatementLineRequest) *domain.BankReconciliation {
	rec, err := s.svc.Reconciliation.StartReconciliation(s.ctx, testClub, dto.StartReconciliationRequest{
		AccountID:      s.cash.AccountID,
		PeriodStart:    date(3, 1),
		PeriodEnd:      date(3, 31),
		OpeningBalance: money("1000.00"),
		ClosingBalance: money(closing),
		StatementLines: lines,
	}, testActor)
	s.Require().NoError(err)
	return rec
}

func statementLine(month, day int, amount string) dto.StatementLineRequest {
	return dto.StatementLineRequest{TransactionDate: date(month, day), Description: "statement", Amount: money(amount)}
}

func lineOf(rec *domain.BankReconciliation, source domain.LineSource, amount string) domain.BankReconciliationLine {
	for _, l := range rec.Lines {
		if l.Source == source && l.Amount.Equal(money(amount)) {
			return l
		}
	}
	return domain.BankReconciliationLine{}
}

func (s *ReconciliationServiceTestSuite) TestStartReconciliation_LoadsBookLines() {
	rec := s.start("1200.00", statementLine(3, 6, "250.00"))
	s.Equal(domain.ReconciliationInProgress, rec.Status)
	s.assertMoney("1200.00", rec.BookClosingBalance)
	s.Len(rec.Lines, 3)

	deposit := lineOf(rec, domain.SourceBook, "250.00")
	s.Equal("JE-000001", deposit.Reference)
	s.True(deposit.IsOutstanding)
	s.NotEmpty(deposit.JournalLineID)
	withdrawal := lineOf(rec, domain.SourceBook, "-50.00")
	s.Equal(date(3, 20), withdrawal.TransactionDate)
	s.True(lineOf(rec, domain.SourceBank, "250.00").IsBankOnlyItem)
}

func (s *ReconciliationServiceTestSuite) TestScenario_PartialMatchCompletes() {
	rec := s.start("1200.00", statementLine(3, 6, "250.00"))

	matched, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	bank := lineOf(matched, domain.SourceBank, "250.00")
	book := lineOf(matched, domain.SourceBook, "250.00")
	s.Equal(domain.MatchPartial, bank.MatchType)
	s.assertMoney("0.9", bank.MatchConfidence)
	s.Equal(book.LineID, bank.MatchedLineID)
	s.Equal(bank.LineID, book.MatchedLineID)
	s.False(bank.IsBankOnlyItem)
	s.True(lineOf(matched, domain.SourceBook, "-50.00").IsOutstanding)

	summary, err := s.svc.Reconciliation.Summarize(s.ctx, testClub, rec.ReconciliationID)
	s.Require().NoError(err)
	s.assertMoney("1200.00", summary.AdjustedBookBalance)
	s.assertMoney("0", summary.Difference)
	s.assertMoney("-50.00", summary.OutstandingTotal)
	s.Equal(1, summary.MatchedCount)
	s.Equal(1, summary.OutstandingCount)
	s.False(summary.HasVariance)

	done, err := s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationCompleted, done.Status)
	s.Equal(testActor, done.CompletedBy)
	s.True(lineOf(done, domain.SourceBank, "250.00").IsReconciled)
	s.True(lineOf(done, domain.SourceBook, "250.00").IsReconciled)
	s.False(lineOf(done, domain.SourceBook, "-50.00").IsReconciled)

	_, err = s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *ReconciliationServiceTestSuite) TestAutoMatch_ExactAndOutOfTolerance() {
	rec := s.start("1250.00", statementLine(3, 5, "250.00"), statementLine(3, 28, "-50.00"))

	matched, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.MatchExact, lineOf(matched, domain.SourceBank, "250.00").MatchType)
	s.assertMoney("1", lineOf(matched, domain.SourceBank, "250.00").MatchConfidence)

	late := lineOf(matched, domain.SourceBank, "-50.00")
	s.False(late.IsMatched(), "eight days apart is beyond the date tolerance")
	s.True(late.IsBankOnlyItem)
}

func (s *ReconciliationServiceTestSuite) TestComplete_VarianceNeedsAdjustment() {
	rec := s.start("1190.00", statementLine(3, 5, "250.00"))
	_, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)

	_, err = s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)

	still, err := s.svc.Reconciliation.GetReconciliation(s.ctx, testClub, rec.ReconciliationID)
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationInProgress, still.Status)
	s.assertMoney("-10.00", still.Difference)

	_, err = s.svc.Reconciliation.RecordAdjustment(s.ctx, testClub, rec.ReconciliationID, dto.RecordAdjustmentRequest{Amount: money("0")}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	adjusted, err := s.svc.Reconciliation.RecordAdjustment(s.ctx, testClub, rec.ReconciliationID,
		dto.RecordAdjustmentRequest{Amount: money("-10.00"), Notes: "bank charges"}, testActor)
	s.Require().NoError(err)
	s.assertMoney("0", adjusted.Difference)
	adj := lineOf(adjusted, domain.SourceAdjustment, "-10.00")
	s.Equal(date(3, 31), adj.TransactionDate)
	s.Equal("bank charges", adj.Notes)

	done, err := s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.True(lineOf(done, domain.SourceAdjustment, "-10.00").IsReconciled)
}

func (s *ReconciliationServiceTestSuite) TestBankOnlyItemsAdjustBookBalance() {
	rec := s.start("1195.00", statementLine(3, 5, "250.00"), statementLine(3, 31, "-5.00"))
	_, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)

	summary, err := s.svc.Reconciliation.Summarize(s.ctx, testClub, rec.ReconciliationID)
	s.Require().NoError(err)
	s.assertMoney("-5.00", summary.BankOnlyTotal)
	s.Equal(1, summary.BankOnlyCount)
	s.assertMoney("1195.00", summary.AdjustedBookBalance)
	s.False(summary.HasVariance)
}

func (s *ReconciliationServiceTestSuite) TestStartReconciliation_Rejections() {
	s.start("1200.00")

	_, err := s.svc.Reconciliation.StartReconciliation(s.ctx, testClub, dto.StartReconciliationRequest{
		AccountID: s.cash.AccountID, PeriodStart: date(3, 15), PeriodEnd: date(4, 15),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrActiveSessionExists)

	_, err = s.svc.Reconciliation.StartReconciliation(s.ctx, testClub, dto.StartReconciliationRequest{
		AccountID: s.revenue.AccountID, PeriodStart: date(3, 1), PeriodEnd: date(3, 31),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Reconciliation.StartReconciliation(s.ctx, testClub, dto.StartReconciliationRequest{
		AccountID: s.cash.AccountID, PeriodStart: date(5, 1), PeriodEnd: date(4, 1),
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Reconciliation.StartReconciliation(s.ctx, testClub, dto.StartReconciliationRequest{
		AccountID: s.cash.AccountID, PeriodStart: date(4, 1), PeriodEnd: date(4, 30),
		StatementLines: []dto.StatementLineRequest{statementLine(4, 2, "0")},
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ReconciliationServiceTestSuite) TestManualMatchSurvivesAutoMatch() {
	rec := s.start("1200.00", statementLine(3, 6, "250.00"))
	bank := lineOf(rec, domain.SourceBank, "250.00")
	book := lineOf(rec, domain.SourceBook, "250.00")

	matched, err := s.svc.Reconciliation.ManualMatch(s.ctx, testClub, rec.ReconciliationID,
		dto.ManualMatchRequest{BankLineID: bank.LineID, BookLineID: book.LineID, Notes: "cheque 1042"}, testActor)
	s.Require().NoError(err)
	s.Equal(domain.MatchManual, lineOf(matched, domain.SourceBank, "250.00").MatchType)

	_, err = s.svc.Reconciliation.ManualMatch(s.ctx, testClub, rec.ReconciliationID,
		dto.ManualMatchRequest{BankLineID: bank.LineID, BookLineID: book.LineID}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	again, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	kept := lineOf(again, domain.SourceBank, "250.00")
	s.Equal(domain.MatchManual, kept.MatchType)
	s.Equal(book.LineID, kept.MatchedLineID)
	s.Equal("cheque 1042", kept.Notes)

	unmatched, err := s.svc.Reconciliation.Unmatch(s.ctx, testClub, rec.ReconciliationID, book.LineID, testActor)
	s.Require().NoError(err)
	s.False(lineOf(unmatched, domain.SourceBank, "250.00").IsMatched())
	s.True(lineOf(unmatched, domain.SourceBank, "250.00").IsBankOnlyItem)

	_, err = s.svc.Reconciliation.Unmatch(s.ctx, testClub, rec.ReconciliationID, book.LineID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *ReconciliationServiceTestSuite) TestReconciledLinesAreNotOfferedAgain() {
	first := s.start("1200.00", statementLine(3, 5, "250.00"))
	_, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, first.ReconciliationID, testActor)
	s.Require().NoError(err)
	_, err = s.svc.Reconciliation.Complete(s.ctx, testClub, first.ReconciliationID, testActor)
	s.Require().NoError(err)

	second := s.start("1200.00")
	s.Require().Len(second.Lines, 1)
	s.True(second.Lines[0].Amount.Equal(money("-50.00")))
}

func (s *ReconciliationServiceTestSuite) TestVoidedEntriesAreLeftOut() {
	id := s.record(date(3, 25), s.cash, s.revenue, "30.00")
	_, err := s.svc.Journal.Void(s.ctx, testClub, id, "keyed twice", testActor)
	s.Require().NoError(err)

	rec := s.start("1200.00")
	s.Len(rec.Lines, 2)
	s.assertMoney("1200.00", rec.BookClosingBalance)
}

func (s *ReconciliationServiceTestSuite) TestAutoMatch_PicksUpPostingsMadeDuringSession() {
	rec := s.start("1300.00", statementLine(3, 5, "250.00"), statementLine(3, 22, "100.00"))
	s.assertMoney("1200.00", rec.BookClosingBalance)
	_, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)

	late := s.record(date(3, 22), s.cash, s.revenue, "100.00")

	_, err = s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.ErrorIs(err, apperrors.ErrUnbalanced, "the deposit is on the books and still a bank-only item")

	matched, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.assertMoney("1300.00", matched.BookClosingBalance)
	bank := lineOf(matched, domain.SourceBank, "100.00")
	book := lineOf(matched, domain.SourceBook, "100.00")
	s.Equal(late, book.JournalEntryID)
	s.Equal(domain.MatchExact, bank.MatchType)
	s.Equal(book.LineID, bank.MatchedLineID)
	s.False(bank.IsBankOnlyItem)
	s.assertMoney("0", matched.Difference)

	done, err := s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.True(lineOf(done, domain.SourceBook, "100.00").IsReconciled)

	next := s.start("1300.00")
	s.Require().Len(next.Lines, 1)
	s.assertMoney("-50.00", next.Lines[0].Amount)
}

func (s *ReconciliationServiceTestSuite) TestReversalOfEarlierEntryIsMatchable() {
	id := s.record(date(2, 25), s.cash, s.revenue, "30.00")
	_, err := s.svc.Fiscal.ClosePeriod(s.ctx, testClub, s.period(2).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	_, err = s.svc.Fiscal.SetCurrentPeriod(s.ctx, testClub, s.period(3).FiscalPeriodID, testActor)
	s.Require().NoError(err)
	reversalID, err := s.svc.Journal.Void(s.ctx, testClub, id, "cheque bounced", testActor)
	s.Require().NoError(err)

	rec := s.start("1200.00", statementLine(3, 5, "250.00"), statementLine(3, 15, "-30.00"))
	s.assertMoney("1200.00", rec.BookClosingBalance)
	reversal := lineOf(rec, domain.SourceBook, "-30.00")
	s.Equal(reversalID, reversal.JournalEntryID)
	s.Equal(date(3, 15), reversal.TransactionDate)

	matched, err := s.svc.Reconciliation.AutoMatch(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.Equal(reversal.LineID, lineOf(matched, domain.SourceBank, "-30.00").MatchedLineID)

	done, err := s.svc.Reconciliation.Complete(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationCompleted, done.Status)
}

func (s *ReconciliationServiceTestSuite) TestCancel() {
	rec := s.start("1200.00")
	cancelled, err := s.svc.Reconciliation.Cancel(s.ctx, testClub, rec.ReconciliationID, testActor)
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationCancelled, cancelled.Status)

	_, err = s.svc.Reconciliation.RecordAdjustment(s.ctx, testClub, rec.ReconciliationID,
		dto.RecordAdjustmentRequest{Amount: money("1.00"), Notes: "late"}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	s.start("1200.00")
}
