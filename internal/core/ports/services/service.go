package services

import "context"

// ServiceContainer holds instances of all the application services.
// It is the entry point handlers and the CLI use to reach the ledger.
type ServiceContainer struct {
	Account        AccountSvcFacade
	TaxRate        TaxRateSvcFacade
	Fiscal         FiscalSvcFacade
	Journal        JournalSvcFacade
	Budget         BudgetSvcFacade
	Reconciliation ReconciliationSvcFacade
	Audit          AuditSvcFacade
	Seeder         ChartSeeder
}

// ChartSeeder creates a chart of accounts from a seed document.
type ChartSeeder interface {
	SeedChart(ctx context.Context, clubID string, seed []byte, actor string) (int, error)
}
