package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	testClub  = "club-1"
	otherClub = "club-2"
	testActor = "treasurer"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(month, day int) time.Time {
	return time.Date(2025, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ledgerSuite gives every service suite a small chart of accounts and an open 2025
// fiscal year over the in-memory store.
type ledgerSuite struct {
	suite.Suite
	ctx  context.Context
	db   *memory.DB
	svc  *portssvc.ServiceContainer
	now  time.Time
	opts []services.ContainerOption

	assets   *domain.Account
	cash     *domain.Account
	revenue  *domain.Account
	expense  *domain.Account
	retained *domain.Account
	year     *domain.FiscalYear
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New()
	s.now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	opts := append([]services.ContainerOption{services.WithClock(func() time.Time { return s.now })}, s.opts...)
	s.svc = services.NewServiceContainer(s.db, opts...)

	s.assets = s.createAccount(dto.CreateAccountRequest{Code: "1000", Name: "Assets", Category: domain.Asset, IsHeader: true})
	s.cash = s.createAccount(dto.CreateAccountRequest{
		Code: "1100", Name: "Bank", Category: domain.Asset, ParentAccountID: s.assets.AccountID,
		IsBankAccount: true, OpeningBalance: money("1000.00"),
	})
	s.retained = s.createAccount(dto.CreateAccountRequest{Code: "3100", Name: "Retained earnings", Category: domain.Equity})
	s.revenue = s.createAccount(dto.CreateAccountRequest{Code: "4000", Name: "Membership fees", Category: domain.Revenue})
	s.expense = s.createAccount(dto.CreateAccountRequest{Code: "5000", Name: "Court hire", Category: domain.Expense})

	year, err := s.svc.Fiscal.CreateFiscalYear(s.ctx, testClub, dto.CreateFiscalYearRequest{
		Name:                      "FY2025",
		StartDate:                 date(1, 1),
		EndDate:                   date(12, 31),
		RetainedEarningsAccountID: s.retained.AccountID,
	}, testActor)
	s.Require().NoError(err)
	s.year = year
}

func (s *ledgerSuite) createAccount(req dto.CreateAccountRequest) *domain.Account {
	acc, err := s.svc.Account.CreateAccount(s.ctx, testClub, req, testActor)
	s.Require().NoError(err)
	return acc
}

func (s *ledgerSuite) entryRequest(on time.Time, debit, credit *domain.Account, debitAmt, creditAmt string) dto.CreateJournalEntryRequest {
	return dto.CreateJournalEntryRequest{
		EntryDate:    on,
		Description:  "test entry",
		CurrencyCode: "EUR",
		Lines: []dto.JournalLineRequest{
			{AccountID: debit.AccountID, Debit: money(debitAmt)},
			{AccountID: credit.AccountID, Credit: money(creditAmt)},
		},
	}
}

// record posts a balanced two-line entry and returns its id.
func (s *ledgerSuite) record(on time.Time, debit, credit *domain.Account, amount string) string {
	id, err := s.svc.Journal.RecordEntry(s.ctx, testClub, s.entryRequest(on, debit, credit, amount, amount), portssvc.PostOptions{}, testActor)
	s.Require().NoError(err)
	return id
}

func (s *ledgerSuite) balance(acc *domain.Account, asOf time.Time) decimal.Decimal {
	b, err := s.svc.Account.GetBalance(s.ctx, testClub, acc.AccountID, asOf)
	s.Require().NoError(err)
	return b
}

func (s *ledgerSuite) assertMoney(expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	if money(expected).Equal(actual) {
		return
	}
	s.Fail(fmt.Sprintf("expected %s, got %s", expected, actual.String()), msgAndArgs...)
}

func (s *ledgerSuite) period(number int) *domain.FiscalPeriod {
	year, err := s.svc.Fiscal.GetFiscalYear(s.ctx, testClub, s.year.FiscalYearID)
	s.Require().NoError(err)
	for i := range year.Periods {
		if year.Periods[i].PeriodNumber == number {
			return &year.Periods[i]
		}
	}
	s.FailNow("period not found", "number %d", number)
	return nil
}
