package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the resource is not in a state that allows the operation.
var ErrConflict = errors.New("state conflict")

// ErrInvariant indicates a ledger invariant would be broken by the operation.
// These are surfaced as normal errors but always logged at error level.
var ErrInvariant = errors.New("invariant violation")

// ErrForbidden indicates the caller lacks the authority for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an unexpected failure inside the ledger.
var ErrInternal = errors.New("internal error")

// LedgerError is a named, coded ledger failure. It matches both itself and
// the kind sentinel it belongs to, so callers can test either
// errors.Is(err, ErrUnbalanced) or errors.Is(err, ErrInvariant).
type LedgerError struct {
	Code    string
	Kind    error
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

// Is reports whether target is this error or its kind.
func (e *LedgerError) Is(target error) bool {
	if t, ok := target.(*LedgerError); ok {
		return t.Code == e.Code
	}
	return target == e.Kind
}

// Unwrap exposes the kind sentinel.
func (e *LedgerError) Unwrap() error {
	return e.Kind
}

func newLedgerError(code string, kind error, msg string) *LedgerError {
	return &LedgerError{Code: code, Kind: kind, Message: msg}
}

// Validation errors
var (
	ErrEmptyEntry     = newLedgerError("EMPTY_ENTRY", ErrValidation, "journal entry has no lines")
	ErrUnknownAccount = newLedgerError("UNKNOWN_ACCOUNT", ErrValidation, "account does not exist or cannot receive postings")
	ErrDuplicateCode  = newLedgerError("DUPLICATE_CODE", ErrValidation, "code already exists in this club")
	ErrInvalidParent  = newLedgerError("INVALID_PARENT", ErrValidation, "parent account is missing, belongs to another club or is not a header")
)

// Invariant violations
var (
	ErrUnbalanced       = newLedgerError("UNBALANCED", ErrInvariant, "debits and credits do not balance")
	ErrUnbalancedPeriod = newLedgerError("UNBALANCED_PERIOD", ErrInvariant, "period contains unbalanced posted entries")
)

// State conflicts
var (
	ErrPeriodNotOpen       = newLedgerError("PERIOD_NOT_OPEN", ErrConflict, "fiscal period is not open for posting")
	ErrAlreadyReversed     = newLedgerError("ALREADY_REVERSED", ErrConflict, "journal entry has already been reversed")
	ErrActiveSessionExists = newLedgerError("ACTIVE_SESSION_EXISTS", ErrConflict, "an in-progress reconciliation overlaps this period")
	ErrAccountLocked       = newLedgerError("ACCOUNT_LOCKED", ErrConflict, "account is locked for posting")
	ErrInvalidTransition   = newLedgerError("INVALID_TRANSITION", ErrConflict, "operation not allowed in the current status")
)

// Code returns the ledger error code carried by err, or an empty string.
func Code(err error) string {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// AppError wraps an infrastructure failure with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind sentinel err belongs to, or ErrInternal when it is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrDuplicate, ErrInvariant, ErrConflict, ErrForbidden} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
