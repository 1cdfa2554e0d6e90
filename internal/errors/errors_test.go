package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", NewValidationError("size", 0.0, "must be positive"), ErrInputValidation},
		{"arithmetic", NewArithmeticError("pnl_percentage", "entry price is zero"), ErrInputValidation},
		{"not found", NewNotFoundError("trade", "T1"), ErrNotFound},
		{"invalid state", NewInvalidStateError("trade", "T1", "profit", "close"), ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "closing trade")
			assert.True(t, Is(wrapped, tt.target))
		})
	}
}

func TestNotFoundDistinctFromInvalidState(t *testing.T) {
	nf := NewNotFoundError("trade", "T1")
	assert.False(t, Is(nf, ErrInvalidState))
	assert.False(t, IsValidation(nf))

	is := NewInvalidStateError("trade", "T1", "tp2", "close")
	assert.False(t, Is(is, ErrNotFound))
	assert.Equal(t, "cannot close trade T1: status is tp2", is.Error())
}

func TestAsRecoversField(t *testing.T) {
	err := fmt.Errorf("open: %w", NewValidationError("symbol", "", "is required"))

	var ve *ValidationError
	assert.True(t, As(err, &ve))
	assert.Equal(t, "symbol", ve.Field)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
}
