package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_DiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		require.NoError(t, tx.Accounts().SaveAccount(ctx, domain.Account{AccountID: "a1", ClubID: "club", Code: "1000"}))
		_, err := tx.Accounts().FindAccountByID(ctx, "club", "a1")
		require.NoError(t, err, "writes are visible inside the unit of work")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.Accounts().FindAccountByID(ctx, "club", "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	err := db.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		return tx.Accounts().SaveAccount(ctx, domain.Account{AccountID: "a1", ClubID: "club", Code: "1000", CurrentBalance: decimal.NewFromInt(5)})
	})
	require.NoError(t, err)

	acc, err := db.Accounts().FindAccountByID(ctx, "club", "a1")
	require.NoError(t, err)
	assert.True(t, acc.CurrentBalance.Equal(decimal.NewFromInt(5)))

	_, err = db.Accounts().FindAccountByID(ctx, "other-club", "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "reads are scoped by club")
}

func TestSaveAccount_DuplicateCodePerClub(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	require.NoError(t, db.Accounts().SaveAccount(ctx, domain.Account{AccountID: "a1", ClubID: "club", Code: "1000"}))

	err := db.Accounts().SaveAccount(ctx, domain.Account{AccountID: "a2", ClubID: "club", Code: "1000"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCode)

	assert.NoError(t, db.Accounts().SaveAccount(ctx, domain.Account{AccountID: "a3", ClubID: "other", Code: "1000"}))
}

func TestReturnedEntriesDoNotAliasState(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	entry := domain.JournalEntry{
		EntryID: "e1", ClubID: "club", EntryNumber: "JE-000001",
		Lines: []domain.JournalEntryLine{{LineID: "l1", AccountID: "cash", Debit: decimal.NewFromInt(10)}},
	}
	require.NoError(t, db.Journals().SaveEntry(ctx, entry))

	got, err := db.Journals().FindEntryByID(ctx, "club", "e1")
	require.NoError(t, err)
	got.Lines[0].Debit = decimal.NewFromInt(999)

	again, err := db.Journals().FindEntryByID(ctx, "club", "e1")
	require.NoError(t, err)
	assert.True(t, again.Lines[0].Debit.Equal(decimal.NewFromInt(10)))
}

func TestListEntries_Paginates(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Journals().SaveEntry(ctx, domain.JournalEntry{
			EntryID:     string(rune('a' + i)),
			ClubID:      "club",
			EntryNumber: string(rune('A' + i)),
			EntryDate:   base.AddDate(0, 0, i),
			Status:      domain.EntryPosted,
			AuditFields: domain.NewAuditFields("u", base),
		}))
	}

	page1, next, err := db.Journals().ListEntries(ctx, "club", domain.EntryFilter{}, 2, nil)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, "e", page1[0].EntryID, "newest first")
	assert.Equal(t, "d", page1[1].EntryID)

	page2, next, err := db.Journals().ListEntries(ctx, "club", domain.EntryFilter{}, 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].EntryID)

	page3, next, err := db.Journals().ListEntries(ctx, "club", domain.EntryFilter{}, 2, next)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, "a", page3[0].EntryID)
}
