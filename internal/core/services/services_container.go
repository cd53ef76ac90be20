package services

import (
	"github.com/SscSPs/club_ledger/internal/adapters/lock"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type containerOptions struct {
	locker        portsrepo.Locker
	clock         Clock
	recon         ReconciliationConfig
	overThreshold decimal.Decimal
}

// ContainerOption configures NewServiceContainer.
type ContainerOption func(*containerOptions)

// WithLocker sets the locker posting and period transitions serialize on.
// The default is an in-process locker.
func WithLocker(l portsrepo.Locker) ContainerOption {
	return func(o *containerOptions) {
		o.locker = l
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) ContainerOption {
	return func(o *containerOptions) {
		o.clock = c
	}
}

// WithReconciliationConfig sets the matching parameters of bank reconciliation.
func WithReconciliationConfig(cfg ReconciliationConfig) ContainerOption {
	return func(o *containerOptions) {
		o.recon = cfg
	}
}

// WithBudgetOverThreshold sets the variance percentage above which budget lines are over budget.
func WithBudgetOverThreshold(percent decimal.Decimal) ContainerOption {
	return func(o *containerOptions) {
		o.overThreshold = percent
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(db portsrepo.Database, opts ...ContainerOption) *portssvc.ServiceContainer {
	o := containerOptions{
		clock:         systemClock,
		recon:         DefaultReconciliationConfig(),
		overThreshold: DefaultBudgetOverThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locker == nil {
		o.locker = lock.NewLocalLocker()
	}

	base := BaseService{DB: db, Locker: o.locker, Clock: o.clock}
	container := &portssvc.ServiceContainer{
		Account:        NewAccountService(base),
		TaxRate:        NewTaxRateService(base),
		Fiscal:         NewFiscalService(base),
		Journal:        NewJournalService(base),
		Budget:         NewBudgetService(base, o.overThreshold),
		Reconciliation: NewReconciliationService(base, o.recon),
		Audit:          NewAuditService(base),
	}
	// The account service also seeds charts of accounts.
	container.Seeder = container.Account.(portssvc.ChartSeeder)
	return container
}
