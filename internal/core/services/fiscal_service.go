package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type fiscalService struct {
	BaseService
}

// NewFiscalService creates the fiscal calendar service.
func NewFiscalService(base BaseService) portssvc.FiscalSvcFacade {
	return &fiscalService{BaseService: base}
}

var _ portssvc.FiscalSvcFacade = (*fiscalService)(nil)

func (s *fiscalService) GetFiscalYear(ctx context.Context, clubID, fiscalYearID string) (*domain.FiscalYear, error) {
	return s.DB.Fiscal().FindYearByID(ctx, clubID, fiscalYearID)
}

func (s *fiscalService) ListFiscalYears(ctx context.Context, clubID string) ([]domain.FiscalYear, error) {
	years, err := s.DB.Fiscal().ListYears(ctx, clubID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fiscal years", slog.String("club_id", clubID))
		return nil, fmt.Errorf("failed to list fiscal years: %w", err)
	}
	return years, nil
}

func (s *fiscalService) GetPeriodStatus(ctx context.Context, clubID string, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.DB.Fiscal().FindPeriodByDate(ctx, clubID, domain.DateOnly(date))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrNotFound, date.Format(time.DateOnly))
		}
		s.LogError(ctx, err, "Failed to find fiscal period", slog.Time("date", date))
		return nil, err
	}
	return period, nil
}

func (s *fiscalService) CreateFiscalYear(ctx context.Context, clubID string, req dto.CreateFiscalYearRequest, actor string) (*domain.FiscalYear, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: fiscal year ends before it starts", apperrors.ErrValidation)
	}
	ranges, err := periodRanges(start, end, req.Periods)
	if err != nil {
		return nil, err
	}

	unlock, err := s.acquire(ctx, calendarLockKey(clubID))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var created *domain.FiscalYear
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		existing, err := tx.Fiscal().ListYears(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to list fiscal years: %w", err)
		}
		for _, y := range existing {
			if !y.StartDate.After(end) && !start.After(y.EndDate) {
				return fmt.Errorf("%w: overlaps fiscal year %s", apperrors.ErrValidation, y.Name)
			}
		}
		if err := checkRetainedEarnings(ctx, tx, clubID, req.RetainedEarningsAccountID); err != nil {
			return err
		}

		now := s.now()
		year := domain.FiscalYear{
			FiscalYearID:              newID(),
			ClubID:                    clubID,
			Name:                      req.Name,
			StartDate:                 start,
			EndDate:                   end,
			Status:                    domain.YearOpen,
			AllowPostingToClosed:      req.AllowPostingToClosed,
			RetainedEarningsAccountID: req.RetainedEarningsAccountID,
			AuditFields:               domain.NewAuditFields(actor, now),
		}
		for i, r := range ranges {
			year.Periods = append(year.Periods, domain.FiscalPeriod{
				FiscalPeriodID: newID(),
				ClubID:         clubID,
				FiscalYearID:   year.FiscalYearID,
				PeriodNumber:   i + 1,
				Name:           r.Name,
				StartDate:      r.StartDate,
				EndDate:        r.EndDate,
				Status:         domain.PeriodOpen,
				AuditFields:    domain.NewAuditFields(actor, now),
			})
		}
		if err := tx.Fiscal().SaveYear(ctx, year); err != nil {
			return fmt.Errorf("failed to save fiscal year: %w", err)
		}
		created = &year
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalYear,
			EntityID:   year.FiscalYearID,
			Action:     domain.ActionCreate,
			After:      year,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create fiscal year", slog.String("club_id", clubID), slog.String("name", req.Name))
		return nil, err
	}
	s.LogInfo(ctx, "Fiscal year created", slog.String("fiscal_year_id", created.FiscalYearID), slog.Int("periods", len(created.Periods)))
	return created, nil
}

// periodRanges splits [start, end] into calendar months, or checks that explicit
// ranges partition it exactly.
func periodRanges(start, end time.Time, explicit []dto.PeriodRange) ([]dto.PeriodRange, error) {
	if len(explicit) == 0 {
		var out []dto.PeriodRange
		for cur := start; !cur.After(end); {
			y, m, _ := cur.Date()
			last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
			if last.After(end) {
				last = end
			}
			out = append(out, dto.PeriodRange{Name: cur.Format("Jan 2006"), StartDate: cur, EndDate: last})
			cur = last.AddDate(0, 0, 1)
		}
		return out, nil
	}

	ranges := make([]dto.PeriodRange, len(explicit))
	for i, r := range explicit {
		r.StartDate, r.EndDate = domain.DateOnly(r.StartDate), domain.DateOnly(r.EndDate)
		if r.EndDate.Before(r.StartDate) {
			return nil, fmt.Errorf("%w: period %d ends before it starts", apperrors.ErrValidation, i+1)
		}
		ranges[i] = r
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartDate.Before(ranges[j].StartDate) })
	expected := start
	for i := range ranges {
		if !ranges[i].StartDate.Equal(expected) {
			return nil, fmt.Errorf("%w: periods must partition the fiscal year without gaps or overlaps (expected a period starting %s)",
				apperrors.ErrValidation, expected.Format(time.DateOnly))
		}
		if ranges[i].Name == "" {
			ranges[i].Name = fmt.Sprintf("P%02d", i+1)
		}
		expected = ranges[i].EndDate.AddDate(0, 0, 1)
	}
	if !ranges[len(ranges)-1].EndDate.Equal(end) {
		return nil, fmt.Errorf("%w: last period must end on the fiscal year end %s", apperrors.ErrValidation, end.Format(time.DateOnly))
	}
	return ranges, nil
}

func checkRetainedEarnings(ctx context.Context, tx portsrepo.Store, clubID, accountID string) error {
	acc, err := tx.Accounts().FindAccountByID(ctx, clubID, accountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: retained earnings account %s", apperrors.ErrUnknownAccount, accountID)
	}
	if err != nil {
		return fmt.Errorf("failed to load retained earnings account: %w", err)
	}
	if acc.Category != domain.Equity || !acc.AcceptsPostings() {
		return fmt.Errorf("%w: retained earnings account %s must be an active equity leaf", apperrors.ErrValidation, acc.Code)
	}
	return nil
}

func (s *fiscalService) SetCurrentPeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	target, err := s.DB.Fiscal().FindPeriodByID(ctx, clubID, periodID)
	if err != nil {
		return nil, err
	}
	years := map[string]struct{}{target.FiscalYearID: {}}
	keys := []string{calendarLockKey(clubID), yearLockKey(target.FiscalYearID)}
	if cur, err := s.DB.Fiscal().FindCurrentPeriod(ctx, clubID); err == nil {
		years[cur.FiscalYearID] = struct{}{}
		keys = append(keys, yearLockKey(cur.FiscalYearID))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find current period: %w", err)
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var promoted *domain.FiscalPeriod
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		period, err := tx.Fiscal().FindPeriodByID(ctx, clubID, periodID)
		if err != nil {
			return err
		}
		if period.Status != domain.PeriodOpen {
			return fmt.Errorf("%w: period %s is %s, only an OPEN period can become CURRENT", apperrors.ErrInvalidTransition, period.Name, period.Status)
		}
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, period.FiscalYearID)
		if err != nil {
			return err
		}
		if year.Status != domain.YearOpen {
			return fmt.Errorf("%w: fiscal year %s is closed", apperrors.ErrInvalidTransition, year.Name)
		}

		now := s.now()
		var demoted *domain.FiscalPeriod
		cur, err := tx.Fiscal().FindCurrentPeriod(ctx, clubID)
		switch {
		case err == nil:
			if _, ok := years[cur.FiscalYearID]; !ok {
				return fmt.Errorf("%w: current period changed while waiting for locks", apperrors.ErrConflict)
			}
			cur.Status = domain.PeriodOpen
			cur.Touch(actor, now)
			if err := tx.Fiscal().UpdatePeriod(ctx, *cur); err != nil {
				return fmt.Errorf("failed to demote current period: %w", err)
			}
			demoted = cur
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("failed to find current period: %w", err)
		}

		before := *period
		period.Status = domain.PeriodCurrent
		period.Touch(actor, now)
		if err := tx.Fiscal().UpdatePeriod(ctx, *period); err != nil {
			return fmt.Errorf("failed to promote period: %w", err)
		}
		promoted = period
		parentID, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalPeriod,
			EntityID:   period.FiscalPeriodID,
			Action:     domain.ActionSetCurrent,
			Before:     before,
			After:      *period,
		})
		if err != nil || demoted == nil {
			return err
		}
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalPeriod,
			EntityID:   demoted.FiscalPeriodID,
			Action:     domain.ActionUpdate,
			Before:     map[string]domain.PeriodStatus{"status": domain.PeriodCurrent},
			After:      map[string]domain.PeriodStatus{"status": domain.PeriodOpen},
			ParentID:   parentID,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to set current period", slog.String("period_id", periodID))
		return nil, err
	}
	s.LogInfo(ctx, "Current period set", slog.String("period_id", promoted.FiscalPeriodID), slog.String("name", promoted.Name))
	return promoted, nil
}

func (s *fiscalService) ClosePeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pending, err := s.DB.Fiscal().FindPeriodByID(ctx, clubID, periodID)
	if err != nil {
		return nil, err
	}
	entries, err := s.DB.Journals().FindEntriesByDateRange(ctx, clubID, pending.StartDate, pending.EndDate, balanceStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load period entries: %w", err)
	}
	keys := []string{yearLockKey(pending.FiscalYearID)}
	for _, id := range entriesAccountIDs(entries) {
		keys = append(keys, accountLockKey(id))
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var closed *domain.FiscalPeriod
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		period, err := tx.Fiscal().FindPeriodByID(ctx, clubID, periodID)
		if err != nil {
			return err
		}
		if !period.Status.AcceptsPostings() {
			return fmt.Errorf("%w: period %s is already %s", apperrors.ErrInvalidTransition, period.Name, period.Status)
		}
		before := *period
		if err := freezeTotals(ctx, tx, period); err != nil {
			return err
		}
		now := s.now()
		period.Status = domain.PeriodClosed
		period.ClosedAt = &now
		period.ClosedBy = actor
		period.Touch(actor, now)
		if err := tx.Fiscal().UpdatePeriod(ctx, *period); err != nil {
			return fmt.Errorf("failed to close period: %w", err)
		}
		closed = period
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalPeriod,
			EntityID:   period.FiscalPeriodID,
			Action:     domain.ActionClose,
			Before:     before,
			After:      *period,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to close period", slog.String("period_id", periodID))
		return nil, err
	}
	s.LogInfo(ctx, "Period closed", slog.String("period_id", closed.FiscalPeriodID), slog.String("net_income", closed.NetIncome.StringFixed(accounting.AmountPlaces)))
	return closed, nil
}

var balanceStatuses = []domain.EntryStatus{domain.EntryPosted, domain.EntryVoided}

type frozenTotals struct {
	debits, credits, revenue, expenses decimal.Decimal
}

// periodTotals sums a period's entries, failing on the first unbalanced one.
func periodTotals(entries []domain.JournalEntry, accounts map[string]domain.Account) (frozenTotals, error) {
	t := frozenTotals{decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero}
	for _, e := range entries {
		debit, credit := accounting.Totals(e.Lines)
		if !debit.Equal(credit) {
			return t, fmt.Errorf("%w: entry %s debits %s, credits %s", apperrors.ErrUnbalancedPeriod,
				e.EntryNumber, debit.StringFixed(accounting.AmountPlaces), credit.StringFixed(accounting.AmountPlaces))
		}
		t.debits = t.debits.Add(debit)
		t.credits = t.credits.Add(credit)
		for _, l := range e.Lines {
			switch accounts[l.AccountID].Category {
			case domain.Revenue:
				t.revenue = t.revenue.Add(l.Credit.Sub(l.Debit))
			case domain.Expense:
				t.expenses = t.expenses.Add(l.Debit.Sub(l.Credit))
			}
		}
	}
	return t, nil
}

// freezeTotals recomputes a period's frozen totals from the entries booked into it.
func freezeTotals(ctx context.Context, tx portsrepo.Store, period *domain.FiscalPeriod) error {
	entries, err := tx.Journals().FindEntriesByDateRange(ctx, period.ClubID, period.StartDate, period.EndDate, balanceStatuses)
	if err != nil {
		return fmt.Errorf("failed to load period entries: %w", err)
	}
	accounts, err := tx.Accounts().FindAccountsByIDs(ctx, period.ClubID, entriesAccountIDs(entries))
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	totals, err := periodTotals(entries, accounts)
	if err != nil {
		return err
	}
	period.TotalDebits = totals.debits
	period.TotalCredits = totals.credits
	period.TotalRevenue = totals.revenue
	period.TotalExpenses = totals.expenses
	period.NetIncome = totals.revenue.Sub(totals.expenses)
	return nil
}

func entriesAccountIDs(entries []domain.JournalEntry) []string {
	var lines []domain.JournalEntryLine
	for _, e := range entries {
		lines = append(lines, e.Lines...)
	}
	return lineAccountIDs(lines)
}

func (s *fiscalService) ReopenPeriod(ctx context.Context, clubID, periodID, reason, actor string) (*domain.FiscalPeriod, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to reopen a period", apperrors.ErrValidation)
	}
	return s.transitionPeriod(ctx, clubID, periodID, actor, domain.ActionReopen, reason, func(p *domain.FiscalPeriod, y *domain.FiscalYear, now time.Time) error {
		if p.Status != domain.PeriodClosed {
			return fmt.Errorf("%w: only a CLOSED period can be reopened, %s is %s", apperrors.ErrInvalidTransition, p.Name, p.Status)
		}
		if y.Status != domain.YearOpen {
			return fmt.Errorf("%w: fiscal year %s is closed", apperrors.ErrInvalidTransition, y.Name)
		}
		p.Status = domain.PeriodOpen
		p.ReopenedAt = &now
		p.ReopenedBy = actor
		p.ReopenReason = reason
		return nil
	})
}

func (s *fiscalService) LockPeriod(ctx context.Context, clubID, periodID, actor string) (*domain.FiscalPeriod, error) {
	return s.transitionPeriod(ctx, clubID, periodID, actor, domain.ActionLock, "", func(p *domain.FiscalPeriod, _ *domain.FiscalYear, now time.Time) error {
		if p.Status != domain.PeriodClosed {
			return fmt.Errorf("%w: only a CLOSED period can be locked, %s is %s", apperrors.ErrInvalidTransition, p.Name, p.Status)
		}
		p.Status = domain.PeriodLocked
		p.LockedAt = &now
		p.LockedBy = actor
		return nil
	})
}

// transitionPeriod applies a status change to a period under its year lock.
func (s *fiscalService) transitionPeriod(ctx context.Context, clubID, periodID, actor string, action domain.AuditAction, reason string,
	apply func(p *domain.FiscalPeriod, y *domain.FiscalYear, now time.Time) error) (*domain.FiscalPeriod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pending, err := s.DB.Fiscal().FindPeriodByID(ctx, clubID, periodID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.acquire(ctx, yearLockKey(pending.FiscalYearID))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var updated *domain.FiscalPeriod
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		period, err := tx.Fiscal().FindPeriodByID(ctx, clubID, periodID)
		if err != nil {
			return err
		}
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, period.FiscalYearID)
		if err != nil {
			return err
		}
		before := *period
		now := s.now()
		if err := apply(period, year, now); err != nil {
			return err
		}
		period.Touch(actor, now)
		if err := tx.Fiscal().UpdatePeriod(ctx, *period); err != nil {
			return fmt.Errorf("failed to update period: %w", err)
		}
		updated = period
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalPeriod,
			EntityID:   period.FiscalPeriodID,
			Action:     action,
			Before:     before,
			After:      *period,
			Reason:     reason,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to change period status", slog.String("period_id", periodID), slog.String("action", string(action)))
		return nil, err
	}
	s.LogInfo(ctx, "Period status changed", slog.String("period_id", periodID), slog.String("status", string(updated.Status)))
	return updated, nil
}

func (s *fiscalService) SetAllowPostingToClosed(ctx context.Context, clubID, fiscalYearID string, allow bool, actor string) (*domain.FiscalYear, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	unlock, err := s.acquire(ctx, yearLockKey(fiscalYearID))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var updated *domain.FiscalYear
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		year, err := tx.Fiscal().FindYearByID(ctx, clubID, fiscalYearID)
		if err != nil {
			return err
		}
		if year.Status != domain.YearOpen {
			return fmt.Errorf("%w: fiscal year %s is closed", apperrors.ErrInvalidTransition, year.Name)
		}
		before := year.AllowPostingToClosed
		year.AllowPostingToClosed = allow
		year.Touch(actor, s.now())
		if err := tx.Fiscal().UpdateYear(ctx, *year); err != nil {
			return fmt.Errorf("failed to update fiscal year: %w", err)
		}
		updated = year
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityFiscalYear,
			EntityID:   year.FiscalYearID,
			Action:     domain.ActionUpdate,
			Before:     map[string]bool{"allowPostingToClosed": before},
			After:      map[string]bool{"allowPostingToClosed": allow},
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update closed-period override", slog.String("fiscal_year_id", fiscalYearID))
		return nil, err
	}
	return updated, nil
}
