//go:build integration

package pgsql_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const club = "club-int"

func day(month, d int) time.Time {
	return time.Date(2025, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// setupPostgres starts a disposable PostgreSQL container, migrates it and
// returns a service container backed by it.
func setupPostgres(t *testing.T) (*pgsql.DB, *portssvc.ServiceContainer) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, pgsql.Migrate(dsn, logger))
	require.NoError(t, pgsql.Migrate(dsn, logger), "migrating twice is a no-op")

	pool, err := database.NewPgxPool(ctx, dsn, 8, logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.ClosePgxPool(pool, logger) })

	db := pgsql.NewDB(pool)
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	return db, services.NewServiceContainer(db, services.WithClock(func() time.Time { return now }))
}

type chart struct {
	cash, retained, revenue, expense *domain.Account
	year                             *domain.FiscalYear
}

func seedChart(t *testing.T, svc *portssvc.ServiceContainer) chart {
	t.Helper()
	ctx := context.Background()
	create := func(req dto.CreateAccountRequest) *domain.Account {
		acc, err := svc.Account.CreateAccount(ctx, club, req, "treasurer")
		require.NoError(t, err)
		return acc
	}
	assets := create(dto.CreateAccountRequest{Code: "1000", Name: "Assets", Category: domain.Asset, IsHeader: true})
	c := chart{
		cash: create(dto.CreateAccountRequest{Code: "1100", Name: "Bank", Category: domain.Asset,
			ParentAccountID: assets.AccountID, IsBankAccount: true, OpeningBalance: money("1000.00")}),
		retained: create(dto.CreateAccountRequest{Code: "3100", Name: "Retained earnings", Category: domain.Equity}),
		revenue:  create(dto.CreateAccountRequest{Code: "4000", Name: "Fees", Category: domain.Revenue}),
		expense:  create(dto.CreateAccountRequest{Code: "5000", Name: "Court hire", Category: domain.Expense}),
	}
	year, err := svc.Fiscal.CreateFiscalYear(ctx, club, dto.CreateFiscalYearRequest{
		Name: "FY2025", StartDate: day(1, 1), EndDate: day(12, 31), RetainedEarningsAccountID: c.retained.AccountID,
	}, "treasurer")
	require.NoError(t, err)
	require.Len(t, year.Periods, 12)
	c.year = year
	return c
}

func entry(on time.Time, debit, credit *domain.Account, amount string) dto.CreateJournalEntryRequest {
	return dto.CreateJournalEntryRequest{
		EntryDate: on, Description: "integration", CurrencyCode: "EUR",
		Lines: []dto.JournalLineRequest{
			{AccountID: debit.AccountID, Debit: money(amount)},
			{AccountID: credit.AccountID, Credit: money(amount)},
		},
	}
}

func TestIntegration_PostgresLedger(t *testing.T) {
	db, svc := setupPostgres(t)
	ctx := context.Background()
	c := seedChart(t, svc)

	t.Run("duplicate code maps to ledger error", func(t *testing.T) {
		_, err := svc.Account.CreateAccount(ctx, club, dto.CreateAccountRequest{Code: "1100", Name: "Again", Category: domain.Asset}, "treasurer")
		assert.ErrorIs(t, err, apperrors.ErrDuplicateCode)
	})

	t.Run("post void and rebuild", func(t *testing.T) {
		id, err := svc.Journal.RecordEntry(ctx, club, entry(day(3, 5), c.cash, c.revenue, "250.00"), portssvc.PostOptions{}, "treasurer")
		require.NoError(t, err)

		posted, err := svc.Journal.GetEntry(ctx, club, id)
		require.NoError(t, err)
		assert.Equal(t, "JE-000001", posted.EntryNumber)
		assert.Equal(t, day(3, 5), posted.EntryDate.UTC())
		require.Len(t, posted.Lines, 2)

		reversalID, err := svc.Journal.Void(ctx, club, id, "duplicate receipt", "treasurer")
		require.NoError(t, err)
		reversal, err := svc.Journal.FindReversal(ctx, club, id)
		require.NoError(t, err)
		assert.Equal(t, reversalID, reversal.EntryID)

		_, err = svc.Journal.Void(ctx, club, id, "again", "treasurer")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReversed)

		bal, err := svc.Account.GetBalance(ctx, club, c.cash.AccountID, day(12, 31))
		require.NoError(t, err)
		assert.True(t, money("1000.00").Equal(bal), "got %s", bal)
	})

	t.Run("concurrent postings keep balances exact", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Journal.RecordEntry(ctx, club, entry(day(3, 10), c.cash, c.revenue, "1.00"), portssvc.PostOptions{}, "treasurer")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		acc, err := db.Accounts().FindAccountByID(ctx, club, c.cash.AccountID)
		require.NoError(t, err)
		assert.True(t, money("1010.00").Equal(acc.CurrentBalance), "got %s", acc.CurrentBalance)

		page, err := svc.Journal.ListEntries(ctx, club, dto.ListJournalEntriesParams{Limit: 5})
		require.NoError(t, err)
		assert.Len(t, page.Entries, 5)
		require.NotNil(t, page.NextToken)
		rest, err := svc.Journal.ListEntries(ctx, club, dto.ListJournalEntriesParams{Limit: 50, NextToken: *page.NextToken})
		require.NoError(t, err)
		assert.Len(t, rest.Entries, 7)
	})

	t.Run("period close and reopen", func(t *testing.T) {
		feb := c.year.Periods[1]
		closed, err := svc.Fiscal.ClosePeriod(ctx, club, feb.FiscalPeriodID, "treasurer")
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodClosed, closed.Status)

		_, err = svc.Journal.RecordEntry(ctx, club, entry(day(2, 10), c.expense, c.cash, "5.00"), portssvc.PostOptions{}, "treasurer")
		assert.ErrorIs(t, err, apperrors.ErrPeriodNotOpen)

		_, err = svc.Fiscal.ReopenPeriod(ctx, club, feb.FiscalPeriodID, "late invoice", "treasurer")
		require.NoError(t, err)
		_, err = svc.Journal.RecordEntry(ctx, club, entry(day(2, 10), c.expense, c.cash, "5.00"), portssvc.PostOptions{}, "treasurer")
		assert.NoError(t, err)

		current, err := svc.Fiscal.SetCurrentPeriod(ctx, club, c.year.Periods[2].FiscalPeriodID, "treasurer")
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodCurrent, current.Status)
		_, err = svc.Fiscal.SetCurrentPeriod(ctx, club, c.year.Periods[3].FiscalPeriodID, "treasurer")
		require.NoError(t, err)
		status, err := svc.Fiscal.GetPeriodStatus(ctx, club, day(3, 1))
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodOpen, status.Status)
	})

	t.Run("budget round trip", func(t *testing.T) {
		amounts := make([]decimal.Decimal, 12)
		for i := range amounts {
			amounts[i] = money("10.00")
		}
		b, err := svc.Budget.CreateBudget(ctx, club, dto.CreateBudgetRequest{
			FiscalYearID: c.year.FiscalYearID, Name: "Operating",
			Lines: []dto.BudgetLineRequest{{AccountID: c.expense.AccountID, Amounts: amounts}},
		}, "treasurer")
		require.NoError(t, err)
		_, err = svc.Budget.SubmitForReview(ctx, club, b.BudgetID, "secretary")
		require.NoError(t, err)
		_, err = svc.Budget.Approve(ctx, club, b.BudgetID, "chair")
		require.NoError(t, err)

		refreshed, err := svc.Budget.RefreshActuals(ctx, club, b.BudgetID, "treasurer")
		require.NoError(t, err)
		require.Len(t, refreshed.Lines, 1)
		require.Len(t, refreshed.Lines[0].Slots, 12)
		assert.True(t, money("5.00").Equal(refreshed.Lines[0].Slots[1].Actual))
		assert.True(t, money("120.00").Equal(refreshed.TotalBudgeted))
	})

	t.Run("reconciliation completes", func(t *testing.T) {
		rec, err := svc.Reconciliation.StartReconciliation(ctx, club, dto.StartReconciliationRequest{
			AccountID: c.cash.AccountID, PeriodStart: day(3, 1), PeriodEnd: day(3, 31),
			OpeningBalance: money("995.00"), ClosingBalance: money("1005.00"),
			StatementLines: []dto.StatementLineRequest{
				{TransactionDate: day(3, 5), Amount: money("250.00")},
				{TransactionDate: day(3, 5), Amount: money("-250.00")},
			},
		}, "treasurer")
		require.NoError(t, err)

		matched, err := svc.Reconciliation.AutoMatch(ctx, club, rec.ReconciliationID, "treasurer")
		require.NoError(t, err)
		again, err := svc.Reconciliation.GetReconciliation(ctx, club, rec.ReconciliationID)
		require.NoError(t, err)
		assert.Equal(t, len(matched.Lines), len(again.Lines))

		summary, err := svc.Reconciliation.Summarize(ctx, club, rec.ReconciliationID)
		require.NoError(t, err)
		assert.True(t, summary.AdjustedBookBalance.IsPositive())
	})

	t.Run("audit trail is queryable and reviewable", func(t *testing.T) {
		records, err := svc.Audit.ListAuditRecords(ctx, club, domain.EntityAccount, c.cash.AccountID)
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, domain.ActionCreate, records[0].Action)
		assert.NotEmpty(t, records[0].After)

		reviewed, err := svc.Audit.MarkReviewed(ctx, club, records[0].AuditLogID, "auditor")
		require.NoError(t, err)
		assert.True(t, reviewed.HasBeenReviewed)
		assert.JSONEq(t, string(records[0].After), string(reviewed.After))
	})
}
