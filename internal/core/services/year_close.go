package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// CloseYear zeroes revenue and expense accounts into retained earnings with one
// system entry dated the last day of the year, then rolls year-to-date balances
// into prior-year balances. Nothing is deleted.
func (s *fiscalService) CloseYear(ctx context.Context, clubID, fiscalYearID, actor string) (*domain.FiscalYear, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	accounts, err := s.DB.Accounts().ListAccounts(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	keys := []string{yearLockKey(fiscalYearID)}
	for _, a := range accounts {
		keys = append(keys, accountLockKey(a.AccountID))
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var closed *domain.FiscalYear
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, fiscalYearID)
		if err != nil {
			return err
		}
		if year.Status != domain.YearOpen {
			return fmt.Errorf("%w: fiscal year %s is already closed", apperrors.ErrInvalidTransition, year.Name)
		}
		for _, p := range year.Periods {
			if !p.Status.IsClosed() {
				return fmt.Errorf("%w: period %s is still %s", apperrors.ErrInvalidTransition, p.Name, p.Status)
			}
		}
		if err := checkRetainedEarnings(ctx, tx, clubID, year.RetainedEarningsAccountID); err != nil {
			return err
		}

		byID, err := s.lockAllAccounts(ctx, tx, clubID)
		if err != nil {
			return err
		}
		entries, err := tx.Journals().FindEntriesByDateRange(ctx, clubID, year.StartDate, year.EndDate, balanceStatuses)
		if err != nil {
			return fmt.Errorf("failed to load year entries: %w", err)
		}
		activity, err := entryActivity(entries, byID)
		if err != nil {
			return err
		}

		before := *year
		before.Periods = nil
		if lines := closingLines(activity, byID, year.RetainedEarningsAccountID); len(lines) > 0 {
			entry, err := s.createDraft(ctx, tx, audit, clubID, draftSpec{
				entryDate:    year.EndDate,
				description:  fmt.Sprintf("Year-end close of %s", year.Name),
				currencyCode: entries[0].CurrencyCode,
				source:       domain.SourceYearClose,
			}, lines)
			if err != nil {
				return err
			}
			if err := s.postEntry(ctx, tx, audit, entry, postMode{yearClose: true}); err != nil {
				return err
			}
			year.ClosingEntryID = entry.EntryID
		}

		if err := s.rollBalances(ctx, tx, audit, clubID, year, activity); err != nil {
			return err
		}

		now := s.now()
		year.Status = domain.YearClosed
		year.ClosedAt = &now
		year.ClosedBy = actor
		year.Touch(actor, now)
		if err := tx.Fiscal().UpdateYear(ctx, *year); err != nil {
			return fmt.Errorf("failed to close fiscal year: %w", err)
		}
		after := *year
		after.Periods = nil
		closed = year
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalYear,
			EntityID:   year.FiscalYearID,
			Action:     domain.ActionClose,
			Before:     before,
			After:      after,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to close fiscal year", slog.String("fiscal_year_id", fiscalYearID))
		return nil, err
	}
	s.LogInfo(ctx, "Fiscal year closed", slog.String("fiscal_year_id", closed.FiscalYearID), slog.String("closing_entry_id", closed.ClosingEntryID))
	return closed, nil
}

func (s *fiscalService) lockAllAccounts(ctx context.Context, tx portsrepo.Store, clubID string) (map[string]domain.Account, error) {
	accounts, err := tx.Accounts().ListAccounts(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.AccountID
	}
	byID, err := tx.Accounts().FindAccountsByIDsForUpdate(ctx, clubID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	return byID, nil
}

// entryActivity sums entries per account in each account's normal-side convention.
func entryActivity(entries []domain.JournalEntry, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, e := range entries {
		for _, l := range e.Lines {
			acc, ok := accounts[l.AccountID]
			if !ok {
				return nil, fmt.Errorf("%w: entry %s references unknown account %s", apperrors.ErrInternal, e.EntryNumber, l.AccountID)
			}
			amt, err := accounting.SignedAmount(l, acc.NormalSide)
			if err != nil {
				return nil, err
			}
			out[l.AccountID] = out[l.AccountID].Add(amt)
		}
	}
	return out, nil
}

// closingLines zeroes every revenue and expense account with year activity and
// books the net into retained earnings. Lines are ordered by account code.
func closingLines(activity map[string]decimal.Decimal, accounts map[string]domain.Account, retainedEarningsID string) []domain.JournalEntryLine {
	ids := make([]string, 0, len(activity))
	for id, amt := range activity {
		if accounts[id].Category.IsIncomeStatement() && !amt.IsZero() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return accounts[ids[i]].Code < accounts[ids[j]].Code })

	var lines []domain.JournalEntryLine
	net := decimal.Zero // debits minus credits
	for _, id := range ids {
		acc := accounts[id]
		amt := activity[id]
		line := domain.JournalEntryLine{AccountID: id, Description: "Close " + acc.Code}
		// A positive balance is removed on the side opposite the account's normal side.
		if (acc.NormalSide == domain.Debit) == amt.IsPositive() {
			line.Credit = amt.Abs()
			net = net.Sub(line.Credit)
		} else {
			line.Debit = amt.Abs()
			net = net.Add(line.Debit)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 || net.IsZero() {
		return lines
	}
	re := domain.JournalEntryLine{AccountID: retainedEarningsID, Description: "Net result to retained earnings"}
	if net.IsPositive() {
		re.Credit = net
	} else {
		re.Debit = net.Abs()
	}
	return append(lines, re)
}

// rollBalances sets prior-year balances and removes the closed year's activity from
// year-to-date balances.
func (s *fiscalService) rollBalances(ctx context.Context, tx portsrepo.Store, audit *auditRecorder, clubID string, year *domain.FiscalYear, activity map[string]decimal.Decimal) error {
	byID, err := s.lockAllAccounts(ctx, tx, clubID)
	if err != nil {
		return err
	}
	end := year.EndDate
	lines, err := tx.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{To: &end})
	if err != nil {
		return fmt.Errorf("failed to load ledger lines: %w", err)
	}
	toDate, err := signedActivity(lines, byID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	now := s.now()
	for _, id := range ids {
		acc := byID[id]
		if acc.IsHeader {
			continue
		}
		prior := acc.OpeningBalance.Add(toDate[id])
		if acc.Category.IsIncomeStatement() {
			prior = activity[id]
		}
		ytd := acc.YearToDateBalance.Sub(activity[id])
		if prior.Equal(acc.PriorYearBalance) && ytd.Equal(acc.YearToDateBalance) {
			continue
		}
		before := acc
		acc.PriorYearBalance = prior
		acc.YearToDateBalance = ytd
		acc.Touch(audit.actor, now)
		if err := tx.Accounts().UpdateAccount(ctx, acc); err != nil {
			return fmt.Errorf("failed to roll balances of %s: %w", acc.Code, err)
		}
		if _, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityAccount,
			EntityID:   acc.AccountID,
			Action:     domain.ActionUpdate,
			Before:     map[string]decimal.Decimal{"priorYearBalance": before.PriorYearBalance, "yearToDateBalance": before.YearToDateBalance},
			After:      map[string]decimal.Decimal{"priorYearBalance": prior, "yearToDateBalance": ytd},
			Reason:     "year-end close " + year.Name,
		}); err != nil {
			return err
		}
	}
	return nil
}
