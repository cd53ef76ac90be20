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

// ReconciliationConfig tunes automatic matching and the completion check.
type ReconciliationConfig struct {
	// DateToleranceDays is the widest date drift at which equal amounts still match.
	DateToleranceDays int
	// ExactWindowDays is the drift still scored as an exact match.
	ExactWindowDays int
	// ConfidenceDecayPerDay is subtracted from 1.0 for every day of drift beyond the exact window.
	ConfidenceDecayPerDay decimal.Decimal
	// MinPartialConfidence is the lowest confidence a partial match is accepted at.
	MinPartialConfidence decimal.Decimal
	// BalanceTolerance is the largest difference Complete accepts.
	BalanceTolerance decimal.Decimal
}

// DefaultReconciliationConfig returns the matching parameters used when none are configured.
func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		DateToleranceDays:     3,
		ExactWindowDays:       0,
		ConfidenceDecayPerDay: decimal.RequireFromString("0.1"),
		MinPartialConfidence:  decimal.RequireFromString("0.5"),
		BalanceTolerance:      decimal.Zero,
	}
}

var confidenceFull = decimal.NewFromInt(1)

type reconciliationService struct {
	BaseService
	cfg ReconciliationConfig
}

// NewReconciliationService creates the bank reconciliation engine.
func NewReconciliationService(base BaseService, cfg ReconciliationConfig) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{BaseService: base, cfg: cfg}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func reconciliationLockKey(accountID string) string { return "reconciliation:" + accountID }

func (s *reconciliationService) GetReconciliation(ctx context.Context, clubID, reconciliationID string) (*domain.BankReconciliation, error) {
	return s.DB.Reconciliations().FindReconciliationByID(ctx, clubID, reconciliationID)
}

func (s *reconciliationService) StartReconciliation(ctx context.Context, clubID string, req dto.StartReconciliationRequest, actor string) (*domain.BankReconciliation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	start, end := domain.DateOnly(req.PeriodStart), domain.DateOnly(req.PeriodEnd)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: statement period ends before it starts", apperrors.ErrValidation)
	}
	if !accounting.HasAmountPrecision(req.OpeningBalance) || !accounting.HasAmountPrecision(req.ClosingBalance) {
		return nil, fmt.Errorf("%w: statement balances exceed %d decimal places", apperrors.ErrValidation, accounting.AmountPlaces)
	}
	for i, l := range req.StatementLines {
		if !accounting.HasAmountPrecision(l.Amount) || l.Amount.IsZero() {
			return nil, fmt.Errorf("%w: statement line %d must have a non-zero amount with at most %d decimal places",
				apperrors.ErrValidation, i+1, accounting.AmountPlaces)
		}
	}

	unlock, err := s.acquire(ctx, reconciliationLockKey(req.AccountID))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var started *domain.BankReconciliation
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		account, err := tx.Accounts().FindAccountByID(ctx, clubID, req.AccountID)
		if err != nil {
			return err
		}
		if !account.IsBankAccount || !account.AcceptsPostings() {
			return fmt.Errorf("%w: account %s is not an active bank account", apperrors.ErrValidation, account.Code)
		}
		active, err := tx.Reconciliations().ListReconciliations(ctx, clubID, account.AccountID, []domain.ReconciliationStatus{domain.ReconciliationInProgress})
		if err != nil {
			return fmt.Errorf("failed to list reconciliations: %w", err)
		}
		for _, other := range active {
			if other.Overlaps(start, end) {
				return fmt.Errorf("%w: session %s covers %s to %s", apperrors.ErrActiveSessionExists,
					other.ReconciliationID, other.PeriodStart.Format(time.DateOnly), other.PeriodEnd.Format(time.DateOnly))
			}
		}

		id := newID()
		bookLines, err := s.unreconciledBookLines(ctx, tx, clubID, id, account, start, end)
		if err != nil {
			return err
		}
		bookClosing, err := bookBalance(ctx, tx, clubID, account, end)
		if err != nil {
			return err
		}

		rec := domain.BankReconciliation{
			ReconciliationID:   id,
			ClubID:             clubID,
			AccountID:          account.AccountID,
			PeriodStart:        start,
			PeriodEnd:          end,
			OpeningBalance:     req.OpeningBalance,
			ClosingBalance:     req.ClosingBalance,
			BookClosingBalance: bookClosing,
			Status:             domain.ReconciliationInProgress,
			AuditFields:        domain.NewAuditFields(actor, s.now()),
		}
		for _, l := range req.StatementLines {
			rec.Lines = append(rec.Lines, domain.BankReconciliationLine{
				LineID:           newID(),
				ReconciliationID: id,
				Source:           domain.SourceBank,
				TransactionDate:  domain.DateOnly(l.TransactionDate),
				Description:      l.Description,
				Reference:        l.Reference,
				Amount:           l.Amount,
				IsBankOnlyItem:   true,
			})
		}
		rec.Lines = append(rec.Lines, bookLines...)
		s.applySummary(&rec)

		if err := tx.Reconciliations().SaveReconciliation(ctx, rec); err != nil {
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}
		started = &rec
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityReconciliation,
			EntityID:   rec.ReconciliationID,
			Action:     domain.ActionStart,
			After:      rec,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to start reconciliation", slog.String("account_id", req.AccountID))
		return nil, err
	}
	s.LogInfo(ctx, "Reconciliation started", slog.String("reconciliation_id", started.ReconciliationID), slog.Int("lines", len(started.Lines)))
	return started, nil
}

// unreconciledBookLines loads the account's lines in range that no completed session
// has reconciled. Every line bookBalance counts is offered, except a voided entry and its
// reversal when both fall in range unreconciled, since together they move nothing.
func (s *reconciliationService) unreconciledBookLines(ctx context.Context, tx portsrepo.Store, clubID, recID string, account *domain.Account,
	start, end time.Time) ([]domain.BankReconciliationLine, error) {
	lines, err := tx.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{AccountIDs: []string{account.AccountID}, From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to load book lines: %w", err)
	}
	reconciled, err := tx.Reconciliations().ReconciledJournalLineIDs(ctx, clubID, account.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciled lines: %w", err)
	}
	netted, err := nettedEntries(ctx, tx, clubID, lines, reconciled)
	if err != nil {
		return nil, err
	}
	var out []domain.BankReconciliationLine
	for _, l := range lines {
		if _, done := reconciled[l.LineID]; done {
			continue
		}
		if _, skip := netted[l.EntryID]; skip {
			continue
		}
		out = append(out, domain.BankReconciliationLine{
			LineID:           newID(),
			ReconciliationID: recID,
			Source:           domain.SourceBook,
			TransactionDate:  l.EntryDate,
			Description:      l.Description,
			Reference:        l.EntryNumber,
			Amount:           l.Debit.Sub(l.Credit),
			JournalEntryID:   l.EntryID,
			JournalLineID:    l.LineID,
			IsOutstanding:    true,
		})
	}
	return out, nil
}

// nettedEntries returns the ids of voided entries whose reversal is also among lines,
// together with those reversals, when none of their lines is reconciled.
func nettedEntries(ctx context.Context, tx portsrepo.Store, clubID string, lines []domain.LedgerLine,
	reconciled map[string]struct{}) (map[string]struct{}, error) {
	entries := map[string]bool{} // entry id -> has a reconciled line
	for _, l := range lines {
		_, done := reconciled[l.LineID]
		entries[l.EntryID] = entries[l.EntryID] || done
	}
	netted := map[string]struct{}{}
	for _, l := range lines {
		if l.EntryStatus != domain.EntryVoided {
			continue
		}
		if _, seen := netted[l.EntryID]; seen {
			continue
		}
		reversal, err := tx.Journals().FindReversalOf(ctx, clubID, l.EntryID)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up reversal: %w", err)
		}
		reversalDone, inRange := entries[reversal.EntryID]
		if !inRange || reversalDone || entries[l.EntryID] {
			continue
		}
		netted[l.EntryID] = struct{}{}
		netted[reversal.EntryID] = struct{}{}
	}
	return netted, nil
}

// refreshBookSide brings the session's book lines and book balance up to date with the
// ledger. Book lines still unreconciled keep their pairing; a bank line paired with a
// book line that dropped out is released.
func (s *reconciliationService) refreshBookSide(ctx context.Context, tx portsrepo.Store, rec *domain.BankReconciliation) error {
	account, err := tx.Accounts().FindAccountByID(ctx, rec.ClubID, rec.AccountID)
	if err != nil {
		return err
	}
	fresh, err := s.unreconciledBookLines(ctx, tx, rec.ClubID, rec.ReconciliationID, account, rec.PeriodStart, rec.PeriodEnd)
	if err != nil {
		return err
	}
	bookClosing, err := bookBalance(ctx, tx, rec.ClubID, account, rec.PeriodEnd)
	if err != nil {
		return err
	}

	known := make(map[string]domain.BankReconciliationLine)
	lines := make([]domain.BankReconciliationLine, 0, len(rec.Lines)+len(fresh))
	for _, l := range rec.Lines {
		if l.Source == domain.SourceBook {
			known[l.JournalLineID] = l
			continue
		}
		lines = append(lines, l)
	}
	kept := make(map[string]struct{}, len(fresh))
	for _, l := range fresh {
		if existing, ok := known[l.JournalLineID]; ok {
			l = existing
		}
		kept[l.LineID] = struct{}{}
		lines = append(lines, l)
	}
	for i := range lines {
		l := &lines[i]
		if l.Source != domain.SourceBank || !l.IsMatched() {
			continue
		}
		if _, ok := kept[l.MatchedLineID]; !ok {
			l.MatchedLineID, l.MatchType, l.MatchConfidence = "", domain.MatchNone, decimal.Zero
		}
	}
	rec.Lines = lines
	rec.BookClosingBalance = bookClosing
	markUnmatched(rec)
	return nil
}

// bookBalance is the account's ledger balance at asOf, seen from the bank's side.
func bookBalance(ctx context.Context, tx portsrepo.Store, clubID string, account *domain.Account, asOf time.Time) (decimal.Decimal, error) {
	lines, err := tx.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{AccountIDs: []string{account.AccountID}, To: &asOf})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load book lines: %w", err)
	}
	activity, err := signedActivity(lines, map[string]domain.Account{account.AccountID: *account})
	if err != nil {
		return decimal.Zero, err
	}
	balance := account.OpeningBalance.Add(activity[account.AccountID])
	return accounting.ConvertSide(balance, account.NormalSide, domain.Debit), nil
}

func (s *reconciliationService) AutoMatch(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error) {
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionAutoMatch, func(ctx context.Context, tx portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		if err := s.refreshBookSide(ctx, tx, rec); err != nil {
			return "", err
		}
		matched := s.autoMatch(rec)
		return fmt.Sprintf("%d pairs matched", matched), nil
	})
}

// autoMatch discards previous automatic pairs and pairs bank and book lines of equal
// amount by smallest date drift. Manual pairs are left alone.
func (s *reconciliationService) autoMatch(rec *domain.BankReconciliation) int {
	for i := range rec.Lines {
		l := &rec.Lines[i]
		if l.MatchType == domain.MatchExact || l.MatchType == domain.MatchPartial {
			l.MatchedLineID, l.MatchType, l.MatchConfidence = "", domain.MatchNone, decimal.Zero
		}
	}

	var bank, book []int
	for i, l := range rec.Lines {
		if l.IsMatched() {
			continue
		}
		switch l.Source {
		case domain.SourceBank:
			bank = append(bank, i)
		case domain.SourceBook:
			book = append(book, i)
		}
	}
	sort.SliceStable(bank, func(a, b int) bool {
		return rec.Lines[bank[a]].TransactionDate.Before(rec.Lines[bank[b]].TransactionDate)
	})

	taken := make(map[int]bool, len(book))
	matched := 0
	for _, bi := range bank {
		b := &rec.Lines[bi]
		best, bestDrift := -1, 0
		for _, ki := range book {
			k := rec.Lines[ki]
			if taken[ki] || !k.Amount.Equal(b.Amount) {
				continue
			}
			drift := daysApart(b.TransactionDate, k.TransactionDate)
			if drift > s.cfg.DateToleranceDays {
				continue
			}
			if best == -1 || drift < bestDrift {
				best, bestDrift = ki, drift
			}
		}
		if best == -1 {
			continue
		}
		matchType, confidence := s.score(bestDrift)
		if confidence.LessThan(s.cfg.MinPartialConfidence) {
			continue
		}
		k := &rec.Lines[best]
		taken[best] = true
		b.MatchedLineID, k.MatchedLineID = k.LineID, b.LineID
		b.MatchType, k.MatchType = matchType, matchType
		b.MatchConfidence, k.MatchConfidence = confidence, confidence
		matched++
	}
	markUnmatched(rec)
	return matched
}

// score rates a pair of equal amounts by how many days apart they are.
func (s *reconciliationService) score(drift int) (domain.MatchType, decimal.Decimal) {
	if drift <= s.cfg.ExactWindowDays {
		return domain.MatchExact, confidenceFull
	}
	decay := s.cfg.ConfidenceDecayPerDay.Mul(decimal.NewFromInt(int64(drift - s.cfg.ExactWindowDays)))
	confidence := confidenceFull.Sub(decay)
	if confidence.IsNegative() {
		confidence = decimal.Zero
	}
	return domain.MatchPartial, confidence.Round(4)
}

func daysApart(a, b time.Time) int {
	d := int(domain.DateOnly(a).Sub(domain.DateOnly(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// markUnmatched flags unpaired bank lines as bank-only and unpaired book lines as outstanding.
func markUnmatched(rec *domain.BankReconciliation) {
	for i := range rec.Lines {
		l := &rec.Lines[i]
		l.IsBankOnlyItem = l.Source == domain.SourceBank && !l.IsMatched()
		l.IsOutstanding = l.Source == domain.SourceBook && !l.IsMatched()
	}
}

func (s *reconciliationService) ManualMatch(ctx context.Context, clubID, reconciliationID string, req dto.ManualMatchRequest, actor string) (*domain.BankReconciliation, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionMatch, func(_ context.Context, _ portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		bank, err := findLine(rec, req.BankLineID)
		if err != nil {
			return "", err
		}
		book, err := findLine(rec, req.BookLineID)
		if err != nil {
			return "", err
		}
		if bank.Source != domain.SourceBank || book.Source != domain.SourceBook {
			return "", fmt.Errorf("%w: a manual match pairs one bank line with one book line", apperrors.ErrValidation)
		}
		if bank.IsMatched() || book.IsMatched() {
			return "", fmt.Errorf("%w: line is already matched", apperrors.ErrInvalidTransition)
		}
		bank.MatchedLineID, book.MatchedLineID = book.LineID, bank.LineID
		bank.MatchType, book.MatchType = domain.MatchManual, domain.MatchManual
		bank.MatchConfidence, book.MatchConfidence = confidenceFull, confidenceFull
		bank.Notes, book.Notes = req.Notes, req.Notes
		markUnmatched(rec)
		return req.Notes, nil
	})
}

func (s *reconciliationService) Unmatch(ctx context.Context, clubID, reconciliationID, lineID, actor string) (*domain.BankReconciliation, error) {
	if err := dto.Validate(dto.UnmatchRequest{LineID: lineID}); err != nil {
		return nil, err
	}
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionUnmatch, func(_ context.Context, _ portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		line, err := findLine(rec, lineID)
		if err != nil {
			return "", err
		}
		if !line.IsMatched() {
			return "", fmt.Errorf("%w: line is not matched", apperrors.ErrInvalidTransition)
		}
		other, err := findLine(rec, line.MatchedLineID)
		if err != nil {
			return "", err
		}
		for _, l := range []*domain.BankReconciliationLine{line, other} {
			l.MatchedLineID, l.MatchType, l.MatchConfidence = "", domain.MatchNone, decimal.Zero
		}
		markUnmatched(rec)
		return "", nil
	})
}

func (s *reconciliationService) RecordAdjustment(ctx context.Context, clubID, reconciliationID string, req dto.RecordAdjustmentRequest, actor string) (*domain.BankReconciliation, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.Amount.IsZero() || !accounting.HasAmountPrecision(req.Amount) {
		return nil, fmt.Errorf("%w: adjustment must be non-zero with at most %d decimal places", apperrors.ErrValidation, accounting.AmountPlaces)
	}
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionAdjust, func(_ context.Context, _ portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		date := rec.PeriodEnd
		if req.TransactionDate != nil {
			date = domain.DateOnly(*req.TransactionDate)
		}
		rec.Lines = append(rec.Lines, domain.BankReconciliationLine{
			LineID:           newID(),
			ReconciliationID: rec.ReconciliationID,
			Source:           domain.SourceAdjustment,
			TransactionDate:  date,
			Description:      "Reconciliation adjustment",
			Amount:           req.Amount,
			Notes:            req.Notes,
		})
		return req.Notes, nil
	})
}

func findLine(rec *domain.BankReconciliation, lineID string) (*domain.BankReconciliationLine, error) {
	for i := range rec.Lines {
		if rec.Lines[i].LineID == lineID {
			return &rec.Lines[i], nil
		}
	}
	return nil, fmt.Errorf("%w: reconciliation line %s", apperrors.ErrNotFound, lineID)
}

func (s *reconciliationService) Summarize(ctx context.Context, clubID, reconciliationID string) (*domain.ReconciliationSummary, error) {
	rec, err := s.DB.Reconciliations().FindReconciliationByID(ctx, clubID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.ReconciliationInProgress {
		if err := s.refreshBookSide(ctx, s.DB, rec); err != nil {
			return nil, err
		}
	}
	summary := s.summarize(rec)
	if summary.HasVariance {
		s.LogInfo(ctx, "Reconciliation has an unexplained variance",
			slog.String("reconciliation_id", reconciliationID),
			slog.String("difference", summary.Difference.StringFixed(accounting.AmountPlaces)))
	}
	return &summary, nil
}

// summarize computes AdjustedBookBalance = BookClosingBalance + bank-only items + adjustments.
// Outstanding book lines are reported but already part of the book balance.
func (s *reconciliationService) summarize(rec *domain.BankReconciliation) domain.ReconciliationSummary {
	sum := domain.ReconciliationSummary{
		ReconciliationID:   rec.ReconciliationID,
		BookClosingBalance: rec.BookClosingBalance,
		ClosingBalance:     rec.ClosingBalance,
	}
	for _, l := range rec.Lines {
		switch {
		case l.Source == domain.SourceAdjustment:
			sum.AdjustmentTotal = sum.AdjustmentTotal.Add(l.Amount)
		case l.IsMatched():
			if l.Source == domain.SourceBank {
				sum.MatchedCount++
			}
		case l.Source == domain.SourceBank:
			sum.BankOnlyTotal = sum.BankOnlyTotal.Add(l.Amount)
			sum.BankOnlyCount++
		case l.Source == domain.SourceBook:
			sum.OutstandingTotal = sum.OutstandingTotal.Add(l.Amount)
			sum.OutstandingCount++
		}
	}
	sum.AdjustedBookBalance = sum.BookClosingBalance.Add(sum.BankOnlyTotal).Add(sum.AdjustmentTotal)
	sum.Difference = sum.ClosingBalance.Sub(sum.AdjustedBookBalance)
	sum.HasVariance = sum.Difference.Abs().GreaterThan(s.cfg.BalanceTolerance)
	return sum
}

func (s *reconciliationService) applySummary(rec *domain.BankReconciliation) domain.ReconciliationSummary {
	sum := s.summarize(rec)
	rec.AdjustedBookBalance = sum.AdjustedBookBalance
	rec.Difference = sum.Difference
	return sum
}

func (s *reconciliationService) Complete(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error) {
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionComplete, func(ctx context.Context, tx portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		if err := s.refreshBookSide(ctx, tx, rec); err != nil {
			return "", err
		}
		sum := s.applySummary(rec)
		if sum.HasVariance {
			return "", fmt.Errorf("%w: adjusted book balance %s differs from statement closing balance %s by %s",
				apperrors.ErrUnbalanced,
				sum.AdjustedBookBalance.StringFixed(accounting.AmountPlaces),
				sum.ClosingBalance.StringFixed(accounting.AmountPlaces),
				sum.Difference.StringFixed(accounting.AmountPlaces))
		}
		now := s.now()
		rec.Status = domain.ReconciliationCompleted
		rec.CompletedAt = &now
		rec.CompletedBy = actor
		for i := range rec.Lines {
			l := &rec.Lines[i]
			l.IsReconciled = l.IsMatched() || l.Source == domain.SourceAdjustment
		}
		return "", nil
	})
}

func (s *reconciliationService) Cancel(ctx context.Context, clubID, reconciliationID, actor string) (*domain.BankReconciliation, error) {
	return s.mutate(ctx, clubID, reconciliationID, actor, domain.ActionCancel, func(_ context.Context, _ portsrepo.Store, rec *domain.BankReconciliation) (string, error) {
		rec.Status = domain.ReconciliationCancelled
		return "", nil
	})
}

// mutate applies change to an in-progress session under the account's reconciliation
// lock and records one audit entry with the reason change returns.
func (s *reconciliationService) mutate(ctx context.Context, clubID, reconciliationID, actor string, action domain.AuditAction,
	change func(ctx context.Context, tx portsrepo.Store, rec *domain.BankReconciliation) (string, error)) (*domain.BankReconciliation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pending, err := s.DB.Reconciliations().FindReconciliationByID(ctx, clubID, reconciliationID)
	if err != nil {
		return nil, err
	}
	unlock, err := s.acquire(ctx, reconciliationLockKey(pending.AccountID))
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, unlock)

	var updated *domain.BankReconciliation
	err = s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		rec, err := tx.Reconciliations().FindReconciliationByID(ctx, clubID, reconciliationID)
		if err != nil {
			return err
		}
		if rec.Status != domain.ReconciliationInProgress {
			return fmt.Errorf("%w: reconciliation is %s", apperrors.ErrInvalidTransition, rec.Status)
		}
		before := *rec
		before.Lines = append([]domain.BankReconciliationLine(nil), rec.Lines...)
		reason, err := change(ctx, tx, rec)
		if err != nil {
			return err
		}
		if rec.Status == domain.ReconciliationInProgress {
			s.applySummary(rec)
		}
		rec.Touch(actor, s.now())
		if err := tx.Reconciliations().UpdateReconciliation(ctx, *rec); err != nil {
			return fmt.Errorf("failed to update reconciliation: %w", err)
		}
		updated = rec
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityReconciliation,
			EntityID:   rec.ReconciliationID,
			Action:     action,
			Before:     before,
			After:      *rec,
			Reason:     reason,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update reconciliation", slog.String("reconciliation_id", reconciliationID), slog.String("action", string(action)))
		return nil, err
	}
	s.LogInfo(ctx, "Reconciliation updated",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("action", string(action)),
		slog.String("difference", updated.Difference.StringFixed(accounting.AmountPlaces)))
	return updated, nil
}
