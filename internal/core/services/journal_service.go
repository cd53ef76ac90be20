package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
)

type journalService struct {
	BaseService
}

// NewJournalService creates the journal posting engine.
func NewJournalService(base BaseService) portssvc.JournalSvcFacade {
	return &journalService{BaseService: base}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) GetEntry(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.DB.Journals().FindEntryByID(ctx, clubID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) FindReversal(ctx context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	if _, err := s.GetEntry(ctx, clubID, entryID); err != nil {
		return nil, err
	}
	return s.DB.Journals().FindReversalOf(ctx, clubID, entryID)
}

func (s *journalService) ListEntries(ctx context.Context, clubID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	filter := domain.EntryFilter{Statuses: params.Statuses, From: params.From, To: params.To}
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	entries, next, err := s.DB.Journals().ListEntries(ctx, clubID, filter, params.Limit, token)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to list journal entries", slog.String("club_id", clubID))
		return nil, err
	}
	resp := dto.ToListJournalEntriesResponse(entries, next)
	return &resp, nil
}

func (s *journalService) CreateDraft(ctx context.Context, clubID string, req dto.CreateJournalEntryRequest, actor string) (*domain.JournalEntry, error) {
	if err := s.validateEntryRequest(req, actor); err != nil {
		return nil, err
	}
	var created *domain.JournalEntry
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		entry, err := s.createDraft(ctx, tx, audit, clubID, draftSpecFrom(req), dto.ToJournalLines(req.Lines))
		created = entry
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create journal draft", slog.String("club_id", clubID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal draft created", slog.String("entry_id", created.EntryID), slog.String("entry_number", created.EntryNumber))
	return created, nil
}

func (s *journalService) SubmitForApproval(ctx context.Context, clubID, entryID, actor string) (*domain.JournalEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var submitted *domain.JournalEntry
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		entry, err := tx.Journals().FindEntryByID(ctx, clubID, entryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.EntryDraft {
			return fmt.Errorf("%w: entry %s is %s, expected DRAFT", apperrors.ErrInvalidTransition, entry.EntryNumber, entry.Status)
		}
		if err := accounting.ValidateBalance(entry.Lines); err != nil {
			return fmt.Errorf("entry %s: %w", entry.EntryNumber, err)
		}
		before := entry.Status
		now := s.now()
		entry.Status = domain.EntryPendingApproval
		entry.SubmittedAt = &now
		entry.SubmittedBy = actor
		entry.Touch(actor, now)
		if err := tx.Journals().UpdateEntryHeader(ctx, *entry); err != nil {
			return fmt.Errorf("failed to update journal entry: %w", err)
		}
		submitted = entry
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityJournalEntry,
			EntityID:   entry.EntryID,
			Action:     domain.ActionSubmit,
			Before:     map[string]domain.EntryStatus{"status": before},
			After:      map[string]domain.EntryStatus{"status": entry.Status},
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to submit journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	return submitted, nil
}

func (s *journalService) Post(ctx context.Context, clubID, entryID string, opts portssvc.PostOptions, actor string) (*domain.JournalEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pending, err := s.DB.Journals().FindEntryByID(ctx, clubID, entryID)
	if err != nil {
		return nil, err
	}
	keys, years, err := s.postingLockKeys(ctx, clubID, []time.Time{pending.EntryDate}, pending.AccountIDs())
	if err != nil {
		return nil, err
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var posted *domain.JournalEntry
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		entry, err := tx.Journals().FindEntryByID(ctx, clubID, entryID)
		if err != nil {
			return err
		}
		if err := s.postEntry(ctx, tx, audit, entry, postMode{overrideClosed: opts.OverrideClosedPeriod, lockedYears: years}); err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID), slog.String("entry_number", pending.EntryNumber))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry posted", slog.String("entry_id", posted.EntryID), slog.String("period_id", posted.FiscalPeriodID))
	return posted, nil
}

func (s *journalService) RecordEntry(ctx context.Context, clubID string, req dto.CreateJournalEntryRequest, opts portssvc.PostOptions, actor string) (string, error) {
	if err := s.validateEntryRequest(req, actor); err != nil {
		return "", err
	}
	lines := dto.ToJournalLines(req.Lines)
	keys, years, err := s.postingLockKeys(ctx, clubID, []time.Time{req.EntryDate}, lineAccountIDs(lines))
	if err != nil {
		return "", err
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return "", err
	}
	defer s.release(ctx, unlock)

	var entryID string
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		entry, err := s.createDraft(ctx, tx, audit, clubID, draftSpecFrom(req), lines)
		if err != nil {
			return err
		}
		if err := s.postEntry(ctx, tx, audit, entry, postMode{overrideClosed: opts.OverrideClosedPeriod, lockedYears: years}); err != nil {
			return err
		}
		entryID = entry.EntryID
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to record journal entry", slog.String("club_id", clubID))
		return "", err
	}
	s.LogInfo(ctx, "Journal entry recorded", slog.String("entry_id", entryID))
	return entryID, nil
}

func (s *journalService) Void(ctx context.Context, clubID, entryID, reason, actor string) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	if reason == "" {
		return "", fmt.Errorf("%w: a reason is required to void an entry", apperrors.ErrValidation)
	}
	original, err := s.DB.Journals().FindEntryByID(ctx, clubID, entryID)
	if err != nil {
		return "", err
	}
	dates := []time.Time{original.EntryDate}
	if current, err := s.DB.Fiscal().FindCurrentPeriod(ctx, clubID); err == nil {
		dates = append(dates, current.StartDate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to find current period: %w", err)
	}
	keys, years, err := s.postingLockKeys(ctx, clubID, dates, original.AccountIDs())
	if err != nil {
		return "", err
	}
	unlock, err := s.acquire(ctx, keys...)
	if err != nil {
		return "", err
	}
	defer s.release(ctx, unlock)

	var reversalID string
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		entry, err := tx.Journals().FindEntryByID(ctx, clubID, entryID)
		if err != nil {
			return err
		}
		if err := s.checkVoidable(ctx, tx, entry); err != nil {
			return err
		}
		reversalDate, err := s.reversalDate(ctx, tx, entry)
		if err != nil {
			return err
		}

		reversal, err := s.createDraft(ctx, tx, audit, clubID, draftSpec{
			entryDate:      reversalDate,
			description:    fmt.Sprintf("Reversal of %s: %s", entry.EntryNumber, reason),
			currencyCode:   entry.CurrencyCode,
			reference:      entry.Reference,
			source:         domain.SourceReversal,
			reversedFromID: entry.EntryID,
		}, accounting.SwapSides(entry.Lines))
		if err != nil {
			return err
		}
		if err := s.postEntry(ctx, tx, audit, reversal, postMode{lockedYears: years}); err != nil {
			return err
		}

		before := entry.Status
		now := s.now()
		entry.Status = domain.EntryVoided
		entry.VoidReason = reason
		entry.VoidedAt = &now
		entry.VoidedBy = actor
		entry.Touch(actor, now)
		if err := tx.Journals().UpdateEntryHeader(ctx, *entry); err != nil {
			return fmt.Errorf("failed to update original journal entry: %w", err)
		}
		if _, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityJournalEntry,
			EntityID:   entry.EntryID,
			Action:     domain.ActionVoid,
			Before:     map[string]domain.EntryStatus{"status": before},
			After:      map[string]any{"status": entry.Status, "reversingEntryID": reversal.EntryID},
			Reason:     reason,
		}); err != nil {
			return err
		}
		reversalID = reversal.EntryID
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to void journal entry", slog.String("entry_id", entryID))
		return "", err
	}
	s.LogInfo(ctx, "Journal entry voided", slog.String("entry_id", entryID), slog.String("reversing_entry_id", reversalID))
	return reversalID, nil
}

func (s *journalService) checkVoidable(ctx context.Context, tx portsrepo.Store, entry *domain.JournalEntry) error {
	switch entry.Status {
	case domain.EntryPosted:
	case domain.EntryVoided:
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadyReversed, entry.EntryNumber)
	default:
		return fmt.Errorf("%w: entry %s is %s, expected POSTED", apperrors.ErrInvalidTransition, entry.EntryNumber, entry.Status)
	}
	if entry.IsReversal() {
		return fmt.Errorf("%w: %s is itself a reversal", apperrors.ErrInvalidTransition, entry.EntryNumber)
	}
	if entry.Source == domain.SourceYearClose {
		return fmt.Errorf("%w: %s is a year closing entry", apperrors.ErrInvalidTransition, entry.EntryNumber)
	}
	year, err := s.entryYear(ctx, tx, entry)
	if err != nil {
		return err
	}
	if year.Status == domain.YearClosed {
		return fmt.Errorf("%w: %s belongs to closed fiscal year %s", apperrors.ErrInvalidTransition, entry.EntryNumber, year.Name)
	}
	_, err = tx.Journals().FindReversalOf(ctx, entry.ClubID, entry.EntryID)
	if err == nil {
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadyReversed, entry.EntryNumber)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to look up reversal: %w", err)
	}
	return nil
}

// entryYear returns the fiscal year a posted entry was booked into.
func (s *journalService) entryYear(ctx context.Context, tx portsrepo.Store, entry *domain.JournalEntry) (*domain.FiscalYear, error) {
	var (
		period *domain.FiscalPeriod
		err    error
	)
	if entry.FiscalPeriodID != "" {
		period, err = tx.Fiscal().FindPeriodByID(ctx, entry.ClubID, entry.FiscalPeriodID)
	} else {
		period, err = tx.Fiscal().FindPeriodByDate(ctx, entry.ClubID, entry.EntryDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fiscal period of %s: %w", entry.EntryNumber, err)
	}
	year, err := tx.Fiscal().FindYearByID(ctx, entry.ClubID, period.FiscalYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to find fiscal year of %s: %w", entry.EntryNumber, err)
	}
	return year, nil
}

// reversalDate keeps the original date when its period still accepts postings and
// otherwise moves the reversal into the CURRENT period, as close to today as it allows.
func (s *journalService) reversalDate(ctx context.Context, tx portsrepo.Store, entry *domain.JournalEntry) (time.Time, error) {
	period, err := tx.Fiscal().FindPeriodByDate(ctx, entry.ClubID, entry.EntryDate)
	if err == nil && period.Status.AcceptsPostings() {
		return entry.EntryDate, nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return time.Time{}, fmt.Errorf("failed to find fiscal period: %w", err)
	}
	current, err := tx.Fiscal().FindCurrentPeriod(ctx, entry.ClubID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return time.Time{}, fmt.Errorf("%w: original period is closed and the club has no CURRENT period", apperrors.ErrPeriodNotOpen)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find current period: %w", err)
	}
	today := domain.DateOnly(s.now())
	switch {
	case today.Before(current.StartDate):
		return current.StartDate, nil
	case today.After(current.EndDate):
		return current.EndDate, nil
	default:
		return today, nil
	}
}

func (s *journalService) validateEntryRequest(req dto.CreateJournalEntryRequest, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if len(req.Lines) == 0 {
		return apperrors.ErrEmptyEntry
	}
	return dto.Validate(req)
}

func draftSpecFrom(req dto.CreateJournalEntryRequest) draftSpec {
	return draftSpec{
		entryDate:    req.EntryDate,
		description:  req.Description,
		currencyCode: req.CurrencyCode,
		reference:    req.Reference,
		source:       req.Source,
	}
}
