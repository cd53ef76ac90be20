// Package memory is an in-process implementation of the ledger store.
// Each unit of work runs against a private copy of the state that replaces
// the committed state only when the work succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

type state struct {
	accounts        map[string]domain.Account
	taxRates        map[string]domain.TaxRate
	years           map[string]domain.FiscalYear // Periods kept in periods
	periods         map[string]domain.FiscalPeriod
	entries         map[string]domain.JournalEntry
	sequences       map[string]int64
	budgets         map[string]domain.Budget
	reconciliations map[string]domain.BankReconciliation
	auditLogs       []domain.FinancialAuditLog
}

func newState() *state {
	return &state{
		accounts:        map[string]domain.Account{},
		taxRates:        map[string]domain.TaxRate{},
		years:           map[string]domain.FiscalYear{},
		periods:         map[string]domain.FiscalPeriod{},
		entries:         map[string]domain.JournalEntry{},
		sequences:       map[string]int64{},
		budgets:         map[string]domain.Budget{},
		reconciliations: map[string]domain.BankReconciliation{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.taxRates {
		c.taxRates[k] = v
	}
	for k, v := range s.years {
		c.years[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = cloneEntry(v)
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.budgets {
		c.budgets[k] = cloneBudget(v)
	}
	for k, v := range s.reconciliations {
		c.reconciliations[k] = cloneReconciliation(v)
	}
	c.auditLogs = append(make([]domain.FinancialAuditLog, 0, len(s.auditLogs)), s.auditLogs...)
	return c
}

// DB is an in-memory portsrepo.Database.
type DB struct {
	mu        sync.RWMutex // guards committed
	writeMu   sync.Mutex   // serializes units of work
	committed *state
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{committed: newState()}
}

var _ portsrepo.Database = (*DB)(nil)

func (db *DB) snapshot() *state {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.committed
}

func (db *DB) commit(s *state) {
	db.mu.Lock()
	db.committed = s
	db.mu.Unlock()
}

// WithinTx runs fn against a private copy of the state and publishes it when fn succeeds.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := db.snapshot().clone()
	tx := &store{
		read:  func() *state { return work },
		write: func(f func(*state) error) error { return f(work) },
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	db.commit(work)
	return nil
}

// autocommit applies a single write outside an explicit unit of work.
func (db *DB) autocommit(f func(*state) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	work := db.snapshot().clone()
	if err := f(work); err != nil {
		return err
	}
	db.commit(work)
	return nil
}

func (db *DB) store() *store {
	return &store{read: db.snapshot, write: db.autocommit}
}

func (db *DB) Accounts() portsrepo.AccountRepositoryFacade { return db.store().Accounts() }
func (db *DB) TaxRates() portsrepo.TaxRateRepositoryFacade { return db.store().TaxRates() }
func (db *DB) Fiscal() portsrepo.FiscalRepositoryFacade { return db.store().Fiscal() }
func (db *DB) Journals() portsrepo.JournalRepositoryFacade { return db.store().Journals() }
func (db *DB) Budgets() portsrepo.BudgetRepositoryFacade { return db.store().Budgets() }
func (db *DB) Reconciliations() portsrepo.ReconciliationRepositoryFacade {
	return db.store().Reconciliations()
}
func (db *DB) Audit() portsrepo.AuditRepositoryFacade { return db.store().Audit() }

// store binds repositories to a state source. Reads see a consistent snapshot.
type store struct {
	read  func() *state
	write func(func(*state) error) error
}

func (s *store) Accounts() portsrepo.AccountRepositoryFacade { return &accountRepository{s} }
func (s *store) TaxRates() portsrepo.TaxRateRepositoryFacade { return &taxRateRepository{s} }
func (s *store) Fiscal() portsrepo.FiscalRepositoryFacade { return &fiscalRepository{s} }
func (s *store) Journals() portsrepo.JournalRepositoryFacade { return &journalRepository{s} }
func (s *store) Budgets() portsrepo.BudgetRepositoryFacade { return &budgetRepository{s} }
func (s *store) Reconciliations() portsrepo.ReconciliationRepositoryFacade {
	return &reconciliationRepository{s}
}
func (s *store) Audit() portsrepo.AuditRepositoryFacade { return &auditRepository{s} }

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalEntryLine(nil), e.Lines...)
	return e
}

func cloneBudget(b domain.Budget) domain.Budget {
	lines := make([]domain.BudgetLine, len(b.Lines))
	for i, l := range b.Lines {
		l.Slots = append([]domain.BudgetSlot(nil), l.Slots...)
		lines[i] = l
	}
	b.Lines = lines
	return b
}

func cloneReconciliation(r domain.BankReconciliation) domain.BankReconciliation {
	r.Lines = append([]domain.BankReconciliationLine(nil), r.Lines...)
	return r
}
