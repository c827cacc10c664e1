package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionError(t *testing.T) {
	err := &TransitionError{
		Err: 		ErrIllegalTransition,
		OrderID: 	"o-1",
		Action: 	ActionCancel,
		Current: 	StatusShipped,
		Allowed: 	[]Action{ActionDispute},
	}

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, "order o-1: cancel from shipped: illegal transition; allowed: dispute", err.Error())

	var te *TransitionError
	wrapped := fmt.Errorf("apply: %w", err)
	assert.True(t, errors.As(wrapped, &te))
	assert.Equal(t, StatusShipped, te.Current)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "terminal_state", ErrorKind(&TransitionError{Err: ErrTerminalState}))
	assert.Equal(t, "not_found", ErrorKind(fmt.Errorf("order x: %w", ErrNotFound)))
	assert.Equal(t, "internal", ErrorKind(errors.New("boom")))
	assert.False(t, IsKind(errors.New("boom")))
}

func TestParseEnums(t *testing.T) {
	for _, s := range AllOrderStatuses {
		parsed, err := ParseOrderStatus(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseOrderStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	a, err := ParseAction("refund_partial")
	assert.NoError(t, err)
	assert.True(t, a.IsResolution())
	assert.Equal(t, ResolutionRefundPartial, ResolutionFromAction(a))
	assert.Equal(t, a, ResolutionRefundPartial.Action())

	_, err = ParseActorRole("carrier")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.False(t, StatusDelivered.IsTerminal())
	assert.False(t, StatusDisputed.IsTerminal())
}
