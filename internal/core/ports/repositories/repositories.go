package repositories

// Store groups every repository of the ledger. A Store obtained from
// TransactionManager.WithinTx reads and writes inside that unit of work.
type Store interface {
	Accounts() AccountRepositoryFacade
	TaxRates() TaxRateRepositoryFacade
	Fiscal() FiscalRepositoryFacade
	Journals() JournalRepositoryFacade
	Budgets() BudgetRepositoryFacade
	Reconciliations() ReconciliationRepositoryFacade
	Audit() AuditRepositoryFacade
}
