package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestLedgerError_MatchesCodeAndKind(t *testing.T) {
	err := fmt.Errorf("%w: entry JE-000004 differs by 0.01", apperrors.ErrUnbalanced)

	assert.True(t, errors.Is(err, apperrors.ErrUnbalanced))
	assert.True(t, errors.Is(err, apperrors.ErrInvariant))
	assert.False(t, errors.Is(err, apperrors.ErrValidation))
	assert.False(t, errors.Is(err, apperrors.ErrUnbalancedPeriod))
	assert.Equal(t, "UNBALANCED", apperrors.Code(err))
}

func TestLedgerError_StateConflicts(t *testing.T) {
	for _, err := range []error{apperrors.ErrPeriodNotOpen, apperrors.ErrAlreadyReversed, apperrors.ErrActiveSessionExists} {
		wrapped := fmt.Errorf("%w: context", err)
		assert.True(t, errors.Is(wrapped, apperrors.ErrConflict), err.Error())
	}
}

func TestAppError_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperrors.NewAppError(500, "failed to begin transaction", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to begin transaction: connection reset", err.Error())
	assert.Empty(t, apperrors.Code(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperrors.ErrValidation, apperrors.KindOf(fmt.Errorf("%w: 1000", apperrors.ErrDuplicateCode)))
	assert.Equal(t, apperrors.ErrInvariant, apperrors.KindOf(apperrors.ErrUnbalancedPeriod))
	assert.Equal(t, apperrors.ErrConflict, apperrors.KindOf(apperrors.ErrAccountLocked))
	assert.Equal(t, apperrors.ErrNotFound, apperrors.KindOf(fmt.Errorf("account a1: %w", apperrors.ErrNotFound)))
	assert.Equal(t, apperrors.ErrInternal, apperrors.KindOf(errors.New("disk full")))
}
