package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/google/uuid"
)

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// BaseService provides common functionality for all services
type BaseService struct {
	DB     portsrepo.Database
	Locker portsrepo.Locker
	Clock  Clock
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	if code := apperrors.Code(err); code != "" {
		args = append(args, slog.String("error_code", code))
	}
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// LogFailure logs a failed operation. Invariant violations and unclassified
// failures are errors; caller mistakes and state conflicts are warnings.
func (s *BaseService) LogFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.ErrInvariant || kind == apperrors.ErrInternal {
		s.LogError(ctx, err, msg, keyvals...)
		return
	}
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	if code := apperrors.Code(err); code != "" {
		args = append(args, slog.String("error_code", code))
	}
	args = append(args, keyvals...)
	s.GetLogger(ctx).Warn(msg, args...)
}

func (s *BaseService) now() time.Time {
	if s.Clock == nil {
		return systemClock()
	}
	return s.Clock().UTC()
}

func newID() string {
	return uuid.NewString()
}

// acquire takes the given lock keys for the duration of an operation.
func (s *BaseService) acquire(ctx context.Context, keys ...string) (portsrepo.Unlock, error) {
	unlock, err := s.Locker.Acquire(ctx, keys...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to acquire ledger locks: %v", apperrors.ErrConflict, err)
	}
	return unlock, nil
}

// release frees lock keys, logging rather than failing once the work is done.
func (s *BaseService) release(ctx context.Context, unlock portsrepo.Unlock) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		s.LogError(ctx, err, "Failed to release ledger locks")
	}
}

// runAudited runs fn in one unit of work together with the audit records it writes.
// A unit of work that records nothing is rejected and rolled back.
func (s *BaseService) runAudited(ctx context.Context, clubID, actor string, fn func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error) error {
	return s.DB.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		audit := &auditRecorder{repo: tx.Audit(), clubID: clubID, actor: actor, at: s.now()}
		if err := fn(ctx, tx, audit); err != nil {
			return err
		}
		if audit.written == 0 {
			return fmt.Errorf("%w: mutation recorded no audit entry", apperrors.ErrInternal)
		}
		return nil
	})
}

func accountLockKey(accountID string) string { return "account:" + accountID }

func yearLockKey(fiscalYearID string) string { return "fiscal-year:" + fiscalYearID }

func calendarLockKey(clubID string) string { return "fiscal-calendar:" + clubID }

func requireActor(actor string) error {
	if actor == "" {
		return fmt.Errorf("%w: actor is required", apperrors.ErrValidation)
	}
	return nil
}
