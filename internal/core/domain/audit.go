package domain

import (
	"encoding/json"
	"time"
)

// AuditEntityType names the kind of record an audit entry describes.
type AuditEntityType string

const (
	EntityAccount          AuditEntityType = "ACCOUNT"
	EntityTaxRate          AuditEntityType = "TAX_RATE"
	EntityFiscalYear       AuditEntityType = "FISCAL_YEAR"
	EntityFiscalPeriod     AuditEntityType = "FISCAL_PERIOD"
	EntityJournalEntry     AuditEntityType = "JOURNAL_ENTRY"
	EntityJournalLine      AuditEntityType = "JOURNAL_LINE"
	EntityBudget           AuditEntityType = "BUDGET"
	EntityReconciliation   AuditEntityType = "BANK_RECONCILIATION"
	EntityReconciliationLn AuditEntityType = "BANK_RECONCILIATION_LINE"
)

// AuditAction names the state transition recorded.
type AuditAction string

const (
	ActionCreate     AuditAction = "CREATE"
	ActionUpdate     AuditAction = "UPDATE"
	ActionLock       AuditAction = "LOCK"
	ActionUnlock     AuditAction = "UNLOCK"
	ActionMove       AuditAction = "MOVE"
	ActionDeactivate AuditAction = "DEACTIVATE"
	ActionSubmit     AuditAction = "SUBMIT"
	ActionPost       AuditAction = "POST"
	ActionVoid       AuditAction = "VOID"
	ActionReverse    AuditAction = "REVERSE"
	ActionSetCurrent AuditAction = "SET_CURRENT"
	ActionClose      AuditAction = "CLOSE"
	ActionReopen     AuditAction = "REOPEN"
	ActionApprove    AuditAction = "APPROVE"
	ActionReject     AuditAction = "REJECT"
	ActionRevise     AuditAction = "REVISE"
	ActionRefresh    AuditAction = "REFRESH_ACTUALS"
	ActionStart      AuditAction = "START"
	ActionMatch      AuditAction = "MATCH"
	ActionUnmatch    AuditAction = "UNMATCH"
	ActionAutoMatch  AuditAction = "AUTO_MATCH"
	ActionAdjust     AuditAction = "ADJUST"
	ActionComplete   AuditAction = "COMPLETE"
	ActionCancel     AuditAction = "CANCEL"
)

// FinancialAuditLog is an append-only record of one state transition.
// Only the review fields ever change after insert.
type FinancialAuditLog struct {
	AuditLogID      string          `json:"auditLogID"`
	ClubID          string          `json:"clubID"`
	EntityType      AuditEntityType `json:"entityType"`
	EntityID        string          `json:"entityID"`
	Action          AuditAction     `json:"action"`
	Before          json.RawMessage `json:"before,omitempty"`
	After           json.RawMessage `json:"after,omitempty"`
	Reason          string          `json:"reason"`
	Actor           string          `json:"actor"`
	OccurredAt      time.Time       `json:"occurredAt"`
	ParentAuditID   string          `json:"parentAuditID"`
	HasBeenReviewed bool            `json:"hasBeenReviewed"`
	ReviewedBy      string          `json:"reviewedBy"`
	ReviewedAt      *time.Time      `json:"reviewedAt"`
}
