package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// postMode tunes how postEntry treats the period an entry lands in.
type postMode struct {
	// overrideClosed lets the entry into a CLOSED period of a year allowing it.
	overrideClosed bool
	// yearClose marks the system closing entry: period status is not checked and
	// only current balances move.
	yearClose bool
	// lockedYears are the fiscal years whose locks the caller holds. The entry's
	// year must be among them unless nil.
	lockedYears map[string]struct{}
}

// draftSpec is the header of an entry about to be created.
type draftSpec struct {
	entryDate      time.Time
	description    string
	currencyCode   string
	reference      string
	source         string
	reversedFromID string
}

// createDraft validates lines and stores a new DRAFT entry.
func (s *BaseService) createDraft(ctx context.Context, tx portsrepo.Store, audit *auditRecorder, clubID string, spec draftSpec, lines []domain.JournalEntryLine) (*domain.JournalEntry, error) {
	if err := validateEntryLines(lines); err != nil {
		return nil, err
	}
	accounts, err := tx.Accounts().FindAccountsByIDs(ctx, clubID, lineAccountIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if err := checkLineAccounts(lines, accounts); err != nil {
		return nil, err
	}
	if err := checkLineTaxRates(ctx, tx.TaxRates(), clubID, lines); err != nil {
		return nil, err
	}

	seq, err := tx.Journals().NextEntryNumber(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate entry number: %w", err)
	}
	now := s.now()
	source := spec.source
	if source == "" {
		source = domain.SourceManual
	}
	entry := domain.JournalEntry{
		EntryID:        newID(),
		ClubID:         clubID,
		EntryNumber:    fmt.Sprintf("JE-%06d", seq),
		EntryDate:      domain.DateOnly(spec.entryDate),
		Description:    spec.description,
		CurrencyCode:   spec.currencyCode,
		Reference:      spec.reference,
		Source:         source,
		Status:         domain.EntryDraft,
		ReversedFromID: spec.reversedFromID,
		AuditFields:    domain.NewAuditFields(audit.actor, now),
	}
	entry.Lines = make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		l.LineID = newID()
		l.EntryID = entry.EntryID
		l.ClubID = clubID
		l.LineNumber = i + 1
		l.Debit = accounting.Round(l.Debit)
		l.Credit = accounting.Round(l.Credit)
		l.TaxAmount = accounting.Round(l.TaxAmount)
		entry.Lines[i] = l
	}
	entry.TotalDebit, entry.TotalCredit = accounting.Totals(entry.Lines)

	if err := tx.Journals().SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}
	if _, err := audit.record(ctx, auditEvent{
		EntityType: domain.EntityJournalEntry,
		EntityID:   entry.EntryID,
		Action:     domain.ActionCreate,
		After:      entry,
	}); err != nil {
		return nil, err
	}
	return &entry, nil
}

// postEntry moves a saved DRAFT or PENDING_APPROVAL entry to POSTED and applies its
// balance deltas. The caller holds the locks of the entry's accounts and year.
func (s *BaseService) postEntry(ctx context.Context, tx portsrepo.Store, audit *auditRecorder, entry *domain.JournalEntry, mode postMode) error {
	if !entry.Status.IsPostable() {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrInvalidTransition, entry.EntryNumber, entry.Status)
	}
	if err := validateEntryLines(entry.Lines); err != nil {
		return err
	}
	if err := accounting.ValidateBalance(entry.Lines); err != nil {
		return fmt.Errorf("entry %s: %w", entry.EntryNumber, err)
	}

	period, err := s.resolvePostingPeriod(ctx, tx, entry, mode)
	if err != nil {
		return err
	}

	accounts, err := tx.Accounts().FindAccountsByIDsForUpdate(ctx, entry.ClubID, entry.AccountIDs())
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	if err := checkLineAccounts(entry.Lines, accounts); err != nil {
		return err
	}
	if !mode.yearClose {
		for _, id := range entry.AccountIDs() {
			if accounts[id].IsLocked {
				return fmt.Errorf("%w: %s", apperrors.ErrAccountLocked, accounts[id].Code)
			}
		}
	}

	signed, err := accounting.BalanceDeltas(entry.Lines, accounts)
	if err != nil {
		return err
	}
	now := s.now()
	deltas := make(map[string]domain.BalanceDelta, len(signed))
	for id, d := range signed {
		delta := domain.BalanceDelta{Current: d}
		if !mode.yearClose {
			delta.YearToDate = d
		}
		deltas[id] = delta
	}
	if err := tx.Accounts().ApplyBalanceDeltas(ctx, entry.ClubID, deltas, audit.actor, now); err != nil {
		return fmt.Errorf("failed to apply balance deltas: %w", err)
	}

	before := *entry
	before.Lines = nil
	entry.Status = domain.EntryPosted
	entry.FiscalPeriodID = period.FiscalPeriodID
	entry.TotalDebit, entry.TotalCredit = accounting.Totals(entry.Lines)
	entry.PostedAt = &now
	entry.PostedBy = audit.actor
	entry.Touch(audit.actor, now)
	if err := tx.Journals().UpdateEntryHeader(ctx, *entry); err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	if period.Status == domain.PeriodClosed && !mode.yearClose {
		if err := s.refreezeClosedPeriod(ctx, tx, audit, period, entry.EntryNumber); err != nil {
			return err
		}
	}

	after := *entry
	after.Lines = nil
	headerID, err := audit.record(ctx, auditEvent{
		EntityType: domain.EntityJournalEntry,
		EntityID:   entry.EntryID,
		Action:     domain.ActionPost,
		Before:     before,
		After:      after,
	})
	if err != nil {
		return err
	}
	for _, l := range entry.Lines {
		if _, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityJournalLine,
			EntityID:   l.LineID,
			Action:     domain.ActionPost,
			After:      l,
			ParentID:   headerID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// refreezeClosedPeriod brings the frozen totals of a CLOSED period up to date after an
// override posting landed in it.
func (s *BaseService) refreezeClosedPeriod(ctx context.Context, tx portsrepo.Store, audit *auditRecorder, period *domain.FiscalPeriod, entryNumber string) error {
	before := *period
	if err := freezeTotals(ctx, tx, period); err != nil {
		return err
	}
	period.Touch(audit.actor, s.now())
	if err := tx.Fiscal().UpdatePeriod(ctx, *period); err != nil {
		return fmt.Errorf("failed to update period totals: %w", err)
	}
	_, err := audit.record(ctx, auditEvent{
		EntityType: domain.EntityFiscalPeriod,
		EntityID:   period.FiscalPeriodID,
		Action:     domain.ActionUpdate,
		Before:     before,
		After:      *period,
		Reason:     "override posting " + entryNumber,
	})
	return err
}

// resolvePostingPeriod finds the period an entry's date falls in and checks it accepts the entry.
func (s *BaseService) resolvePostingPeriod(ctx context.Context, tx portsrepo.Store, entry *domain.JournalEntry, mode postMode) (*domain.FiscalPeriod, error) {
	period, err := tx.Fiscal().FindPeriodByDate(ctx, entry.ClubID, entry.EntryDate)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrPeriodNotOpen, entry.EntryDate.Format(time.DateOnly))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fiscal period: %w", err)
	}
	if mode.lockedYears != nil {
		if _, ok := mode.lockedYears[period.FiscalYearID]; !ok {
			return nil, fmt.Errorf("%w: fiscal calendar changed while waiting for locks", apperrors.ErrConflict)
		}
	}
	if mode.yearClose {
		return period, nil
	}

	year, err := tx.Fiscal().FindYearByID(ctx, entry.ClubID, period.FiscalYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to find fiscal year: %w", err)
	}
	if year.Status == domain.YearClosed {
		return nil, fmt.Errorf("%w: fiscal year %s is closed", apperrors.ErrPeriodNotOpen, year.Name)
	}
	switch {
	case period.Status.AcceptsPostings():
		return period, nil
	case period.Status == domain.PeriodClosed && year.AllowPostingToClosed && mode.overrideClosed:
		return period, nil
	default:
		return nil, fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodNotOpen, period.Name, period.Status)
	}
}

// postingLockKeys returns the lock keys for posting on the given dates to the given
// accounts, along with the fiscal years those keys cover.
func (s *BaseService) postingLockKeys(ctx context.Context, clubID string, dates []time.Time, accountIDs []string) ([]string, map[string]struct{}, error) {
	years := map[string]struct{}{}
	keys := make([]string, 0, len(dates)+len(accountIDs))
	for _, d := range dates {
		period, err := s.DB.Fiscal().FindPeriodByDate(ctx, clubID, d)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find fiscal period: %w", err)
		}
		if _, ok := years[period.FiscalYearID]; !ok {
			years[period.FiscalYearID] = struct{}{}
			keys = append(keys, yearLockKey(period.FiscalYearID))
		}
	}
	for _, id := range accountIDs {
		keys = append(keys, accountLockKey(id))
	}
	return keys, years, nil
}

func validateEntryLines(lines []domain.JournalEntryLine) error {
	if len(lines) == 0 {
		return apperrors.ErrEmptyEntry
	}
	for i, l := range lines {
		if l.LineNumber == 0 {
			l.LineNumber = i + 1
		}
		if err := accounting.ValidateLine(l); err != nil {
			return err
		}
	}
	return nil
}

// checkLineAccounts verifies every line references an active leaf account of the club.
func checkLineAccounts(lines []domain.JournalEntryLine, accounts map[string]domain.Account) error {
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, l.AccountID)
		}
		if !acc.AcceptsPostings() {
			return fmt.Errorf("%w: %s is a header or inactive account", apperrors.ErrUnknownAccount, acc.Code)
		}
	}
	return nil
}

func checkLineTaxRates(ctx context.Context, repo portsrepo.TaxRateRepositoryFacade, clubID string, lines []domain.JournalEntryLine) error {
	checked := map[string]struct{}{}
	for _, l := range lines {
		if l.TaxRateID == "" {
			if !l.TaxAmount.IsZero() {
				return fmt.Errorf("%w: line %d has a tax amount without a tax rate", apperrors.ErrValidation, l.LineNumber)
			}
			continue
		}
		if _, ok := checked[l.TaxRateID]; ok {
			continue
		}
		rate, err := repo.FindTaxRateByID(ctx, clubID, l.TaxRateID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: tax rate %s does not exist", apperrors.ErrValidation, l.TaxRateID)
		}
		if err != nil {
			return fmt.Errorf("failed to load tax rate: %w", err)
		}
		if !rate.IsActive {
			return fmt.Errorf("%w: tax rate %s is inactive", apperrors.ErrValidation, rate.Code)
		}
		checked[l.TaxRateID] = struct{}{}
	}
	return nil
}

func lineAccountIDs(lines []domain.JournalEntryLine) []string {
	return domain.JournalEntry{Lines: lines}.AccountIDs()
}

// signedActivity sums ledger lines per account in each account's normal-side convention.
func signedActivity(lines []domain.LedgerLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			continue
		}
		amt, err := accounting.SignedAmount(l.JournalEntryLine, acc.NormalSide)
		if err != nil {
			return nil, err
		}
		out[l.AccountID] = out[l.AccountID].Add(amt)
	}
	return out, nil
}
