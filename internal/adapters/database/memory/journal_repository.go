package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/utils/pagination"
)

type journalRepository struct {
	s *store
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

func (r *journalRepository) NextEntryNumber(_ context.Context, clubID string) (int64, error) {
	var next int64
	err := r.s.write(func(st *state) error {
		st.sequences[clubID]++
		next = st.sequences[clubID]
		return nil
	})
	return next, err
}

func (r *journalRepository) SaveEntry(_ context.Context, entry domain.JournalEntry) error {
	return r.s.write(func(st *state) error {
		if _, exists := st.entries[entry.EntryID]; exists {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
		for _, e := range st.entries {
			if e.ClubID == entry.ClubID && e.EntryNumber == entry.EntryNumber {
				return fmt.Errorf("%w: entry number %s", apperrors.ErrDuplicate, entry.EntryNumber)
			}
		}
		st.entries[entry.EntryID] = cloneEntry(entry)
		return nil
	})
}

func (r *journalRepository) UpdateEntryHeader(_ context.Context, entry domain.JournalEntry) error {
	return r.s.write(func(st *state) error {
		existing, ok := st.entries[entry.EntryID]
		if !ok || existing.ClubID != entry.ClubID {
			return apperrors.ErrNotFound
		}
		lines := existing.Lines
		existing = entry
		existing.Lines = lines
		st.entries[entry.EntryID] = existing
		return nil
	})
}

func (r *journalRepository) FindEntryByID(_ context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	e, ok := r.s.read().entries[entryID]
	if !ok || e.ClubID != clubID {
		return nil, apperrors.ErrNotFound
	}
	e = cloneEntry(e)
	return &e, nil
}

func (r *journalRepository) FindReversalOf(_ context.Context, clubID, entryID string) (*domain.JournalEntry, error) {
	for _, e := range r.s.read().entries {
		if e.ClubID == clubID && e.ReversedFromID == entryID {
			found := cloneEntry(e)
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *journalRepository) ListEntries(_ context.Context, clubID string, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	var cursor *pagination.EntryCursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	matches := []domain.JournalEntry{}
	for _, e := range r.s.read().entries {
		if e.ClubID != clubID || !matchesEntryFilter(e, filter) {
			continue
		}
		if cursor != nil && !cursor.After(e.EntryDate, e.CreatedAt, e.EntryID) {
			continue
		}
		matches = append(matches, e)
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		return pagination.EntryCursor{EntryDate: a.EntryDate, CreatedAt: a.CreatedAt, EntryID: a.EntryID}.
			After(b.EntryDate, b.CreatedAt, b.EntryID)
	})

	var next *string
	if len(matches) > limit {
		matches = matches[:limit]
		last := matches[limit-1]
		token := pagination.EncodeToken(pagination.EntryCursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
		next = &token
	}
	out := make([]domain.JournalEntry, len(matches))
	for i, e := range matches {
		out[i] = cloneEntry(e)
	}
	return out, next, nil
}

func (r *journalRepository) FindEntriesByDateRange(_ context.Context, clubID string, from, to time.Time, statuses []domain.EntryStatus) ([]domain.JournalEntry, error) {
	filter := domain.EntryFilter{Statuses: statuses, From: &from, To: &to}
	entries := []domain.JournalEntry{}
	for _, e := range r.s.read().entries {
		if e.ClubID == clubID && matchesEntryFilter(e, filter) {
			entries = append(entries, cloneEntry(e))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].EntryNumber < entries[j].EntryNumber
	})
	return entries, nil
}

func (r *journalRepository) ListLedgerLines(_ context.Context, clubID string, filter domain.LedgerLineFilter) ([]domain.LedgerLine, error) {
	var accountSet map[string]struct{}
	if len(filter.AccountIDs) > 0 {
		accountSet = make(map[string]struct{}, len(filter.AccountIDs))
		for _, id := range filter.AccountIDs {
			accountSet[id] = struct{}{}
		}
	}

	lines := []domain.LedgerLine{}
	for _, e := range r.s.read().entries {
		if e.ClubID != clubID || !e.Status.CountsTowardBalance() {
			continue
		}
		if filter.From != nil && e.EntryDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.EntryDate.After(*filter.To) {
			continue
		}
		for _, l := range e.Lines {
			if accountSet != nil {
				if _, ok := accountSet[l.AccountID]; !ok {
					continue
				}
			}
			lines = append(lines, domain.LedgerLine{
				JournalEntryLine: l,
				EntryDate:        e.EntryDate,
				EntryNumber:      e.EntryNumber,
				EntryStatus:      e.Status,
				Source:           e.Source,
			})
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if a.EntryNumber != b.EntryNumber {
			return a.EntryNumber < b.EntryNumber
		}
		return a.LineNumber < b.LineNumber
	})
	return lines, nil
}

func matchesEntryFilter(e domain.JournalEntry, f domain.EntryFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if e.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	return true
}
