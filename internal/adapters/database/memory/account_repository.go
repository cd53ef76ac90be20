package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type accountRepository struct {
	s *store
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) SaveAccount(_ context.Context, account domain.Account) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.accounts[account.AccountID]; exists {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		for _, a := range st.accounts {
			if a.ClubID == account.ClubID && a.Code == account.Code {
				return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicateCode, account.Code)
			}
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (r *accountRepository) UpdateAccount(_ context.Context, account domain.Account) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.accounts[account.AccountID]
		if !ok || existing.ClubID != account.ClubID {
			return apperrors.ErrNotFound
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (r *accountRepository) FindAccountByID(_ context.Context, clubID, accountID string) (*domain.Account, error) {
	a, ok := r.s.read().accounts[accountID]
	if !ok || a.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (r *accountRepository) FindAccountByCode(_ context.Context, clubID, code string) (*domain.Account, error) {
	for _, a := range r.s.read().accounts {
		if a.ClubID == clubID && a.Code == code {
			found := a
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *accountRepository) FindAccountsByIDs(_ context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error) {
	st := r.s.read()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if a, ok := st.accounts[id]; ok && a.ClubID == clubID {
			out[id] = a
		}
	}
	return out, nil
}

func (r *accountRepository) FindAccountsByIDsForUpdate(ctx context.Context, clubID string, accountIDs []string) (map[string]domain.Account, error) {
	// Units of work are already serialized in memory.
	return r.FindAccountsByIDs(ctx, clubID, accountIDs)
}

func (r *accountRepository) ListAccounts(_ context.Context, clubID string) ([]domain.Account, error) {
	accounts := []domain.Account{}
	for _, a := range r.s.read().accounts {
		if a.ClubID == clubID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

func (r *accountRepository) ApplyBalanceDeltas(_ context.Context, clubID string, deltas map[string]domain.BalanceDelta, actor string, now time.Time) error {
	return r.s.write(func(st *state) error {
		for id, d := range deltas {
			a, ok := st.accounts[id]
			if !ok || a.ClubID != clubID {
				return fmt.Errorf("%w: account %s not found while applying balance delta", apperrors.ErrNotFound, id)
			}
			a.CurrentBalance = a.CurrentBalance.Add(d.Current)
			a.YearToDateBalance = a.YearToDateBalance.Add(d.YearToDate)
			a.Touch(actor, now)
			st.accounts[id] = a
		}
		return nil
	})
}
