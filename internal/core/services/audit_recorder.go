package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
)

// auditEvent describes one state transition to record.
type auditEvent struct {
	EntityType domain.AuditEntityType
	EntityID   string
	Action     domain.AuditAction
	Before     any
	After      any
	Reason     string
	ParentID   string
}

// auditRecorder appends audit records inside the unit of work it was created for.
type auditRecorder struct {
	repo    portsrepo.AuditRepositoryFacade
	clubID  string
	actor   string
	at      time.Time
	written int
}

// record appends one audit record and returns its id.
func (r *auditRecorder) record(ctx context.Context, ev auditEvent) (string, error) {
	before, err := snapshot(ev.Before)
	if err != nil {
		return "", err
	}
	after, err := snapshot(ev.After)
	if err != nil {
		return "", err
	}
	rec := domain.FinancialAuditLog{
		AuditLogID:    newID(),
		ClubID:        r.clubID,
		EntityType:    ev.EntityType,
		EntityID:      ev.EntityID,
		Action:        ev.Action,
		Before:        before,
		After:         after,
		Reason:        ev.Reason,
		Actor:         r.actor,
		OccurredAt:    r.at,
		ParentAuditID: ev.ParentID,
	}
	if err := r.repo.AppendAuditLog(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: failed to write audit record for %s %s: %v", apperrors.ErrInternal, ev.EntityType, ev.EntityID, err)
	}
	r.written++
	return rec.AuditLogID, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to snapshot audit state: %v", apperrors.ErrInternal, err)
	}
	return b, nil
}
