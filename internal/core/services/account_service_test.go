package services_test

import (
	"testing"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	ledgerSuite
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestCreateAccount_HierarchyFields() {
	s.Equal(0, s.assets.Level)
	s.Equal("1000", s.assets.FullPath)
	s.Equal(1, s.cash.Level)
	s.Equal("1000/1100", s.cash.FullPath)
	s.Equal(domain.Debit, s.cash.NormalSide)
	s.Equal(domain.Credit, s.revenue.NormalSide)
	s.True(s.cash.IsActive)
	s.assertMoney("1000.00", s.cash.CurrentBalance)

	petty := s.createAccount(dto.CreateAccountRequest{Code: "1110", Name: "Petty cash", Category: domain.Asset, ParentAccountID: s.assets.AccountID})
	s.Equal("1000/1110", petty.FullPath)

	accounts, err := s.svc.Account.ListAccounts(s.ctx, testClub)
	s.Require().NoError(err)
	codes := make([]string, len(accounts))
	for i, a := range accounts {
		codes[i] = a.Code
	}
	s.Equal([]string{"1000", "1100", "1110", "3100", "4000", "5000"}, codes)
}

func (s *AccountServiceTestSuite) TestCreateAccount_Rejections() {
	_, err := s.svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{Code: "1100", Name: "Dup", Category: domain.Asset}, testActor)
	s.ErrorIs(err, apperrors.ErrDuplicateCode)

	_, err = s.svc.Account.CreateAccount(s.ctx, otherClub, dto.CreateAccountRequest{Code: "1100", Name: "Same code elsewhere", Category: domain.Asset}, testActor)
	s.NoError(err, "codes are unique per club only")

	_, err = s.svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{
		Code: "1101", Name: "Under leaf", Category: domain.Asset, ParentAccountID: s.cash.AccountID,
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidParent)

	_, err = s.svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{
		Code: "1102", Name: "Orphan", Category: domain.Asset, ParentAccountID: "missing",
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidParent)

	_, err = s.svc.Account.CreateAccount(s.ctx, otherClub, dto.CreateAccountRequest{
		Code: "1103", Name: "Cross club", Category: domain.Asset, ParentAccountID: s.assets.AccountID,
	}, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidParent)

	_, err = s.svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{
		Code: "2000", Name: "Bank loan", Category: domain.Liability, IsBankAccount: true,
	}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{Code: "2001", Name: "Bad", Category: "INCOME"}, testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestHeaderBalanceAggregatesSubtree() {
	petty := s.createAccount(dto.CreateAccountRequest{
		Code: "1110", Name: "Petty cash", Category: domain.Asset, ParentAccountID: s.assets.AccountID, OpeningBalance: money("50.00"),
	})
	s.record(date(3, 1), s.cash, s.revenue, "100.00")
	s.record(date(3, 2), petty, s.cash, "20.00")

	s.assertMoney("1150.00", s.balance(s.assets, date(3, 31)))
	s.assertMoney("1080.00", s.balance(s.cash, date(3, 31)))
	s.assertMoney("70.00", s.balance(petty, date(3, 31)))
}

func (s *AccountServiceTestSuite) TestTrialBalance() {
	s.createAccount(dto.CreateAccountRequest{Code: "3000", Name: "Opening equity", Category: domain.Equity, OpeningBalance: money("1000.00")})
	s.record(date(3, 1), s.cash, s.revenue, "100.00")
	s.record(date(3, 2), s.expense, s.cash, "30.00")
	s.record(date(4, 2), s.expense, s.cash, "5.00")

	tb, err := s.svc.Account.GetTrialBalance(s.ctx, testClub, date(3, 31))
	s.Require().NoError(err)

	s.True(tb.IsBalanced)
	s.assertMoney("1100.00", tb.TotalDebit)
	s.assertMoney("1100.00", tb.TotalCredit)
	s.Require().Len(tb.Rows, 4, "headers and zero balances are omitted")
	s.Equal("1100", tb.Rows[0].Code)
	s.assertMoney("1070.00", tb.Rows[0].Debit)
	s.Equal("4000", tb.Rows[2].Code)
	s.assertMoney("100.00", tb.Rows[2].Credit)
}

func (s *AccountServiceTestSuite) TestMoveAccount() {
	current := s.createAccount(dto.CreateAccountRequest{Code: "1200", Name: "Current assets", Category: domain.Asset, IsHeader: true})
	moved, err := s.svc.Account.MoveAccount(s.ctx, testClub, s.assets.AccountID, current.AccountID, testActor)
	s.Require().NoError(err)
	s.Equal(1, moved.Level)
	s.Equal("1200/1000", moved.FullPath)

	cash, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	s.Equal(2, cash.Level)
	s.Equal("1200/1000/1100", cash.FullPath)

	_, err = s.svc.Account.MoveAccount(s.ctx, testClub, current.AccountID, s.assets.AccountID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidParent, "cycles are rejected")

	_, err = s.svc.Account.MoveAccount(s.ctx, testClub, s.assets.AccountID, s.assets.AccountID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidParent)

	root, err := s.svc.Account.MoveAccount(s.ctx, testClub, s.assets.AccountID, "", testActor)
	s.Require().NoError(err)
	s.Equal(0, root.Level)
	s.Equal("1000", root.FullPath)
}

func (s *AccountServiceTestSuite) TestDeactivateAccount() {
	err := s.svc.Account.DeactivateAccount(s.ctx, testClub, s.cash.AccountID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition, "non-zero balance")

	spare := s.createAccount(dto.CreateAccountRequest{Code: "5100", Name: "Spare", Category: domain.Expense})
	s.Require().NoError(s.svc.Account.DeactivateAccount(s.ctx, testClub, spare.AccountID, testActor))

	_, err = s.svc.Journal.RecordEntry(s.ctx, testClub, s.entryRequest(date(3, 1), spare, s.cash, "1.00", "1.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	err = s.svc.Account.DeactivateAccount(s.ctx, testClub, spare.AccountID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *AccountServiceTestSuite) TestLockAccountKeepsBalanceReadable() {
	s.record(date(3, 1), s.cash, s.revenue, "10.00")
	locked, err := s.svc.Account.LockAccount(s.ctx, testClub, s.cash.AccountID, testActor)
	s.Require().NoError(err)
	s.True(locked.IsLocked)
	s.assertMoney("1010.00", s.balance(s.cash, date(3, 31)))

	_, err = s.svc.Account.LockAccount(s.ctx, testClub, s.cash.AccountID, testActor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *AccountServiceTestSuite) TestSeedChart() {
	seed := []byte(`
accounts:
  - code: "1"
    name: Assets
    category: ASSET
    children:
      - code: "11"
        name: Current account
        category: ASSET
        bank: true
  - code: "4"
    name: Income
    category: REVENUE
    children:
      - code: "41"
        name: Subscriptions
        category: REVENUE
`)
	n, err := s.svc.Seeder.SeedChart(s.ctx, otherClub, seed, testActor)
	s.Require().NoError(err)
	s.Equal(4, n)

	accounts, err := s.svc.Account.ListAccounts(s.ctx, otherClub)
	s.Require().NoError(err)
	s.Require().Len(accounts, 4)
	s.True(accounts[0].IsHeader)
	s.Equal("1/11", accounts[1].FullPath)
	s.True(accounts[1].IsBankAccount)
	s.Equal(domain.Credit, accounts[3].NormalSide)

	_, err = s.svc.Seeder.SeedChart(s.ctx, otherClub, seed, testActor)
	s.ErrorIs(err, apperrors.ErrDuplicateCode)
	again, err := s.svc.Account.ListAccounts(s.ctx, otherClub)
	s.Require().NoError(err)
	s.Len(again, 4, "a failed seed leaves nothing behind")

	_, err = s.svc.Seeder.SeedChart(s.ctx, otherClub, []byte("accounts: ["), testActor)
	s.ErrorIs(err, apperrors.ErrValidation)
}
