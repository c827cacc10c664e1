package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound 			= errors.New("not found")
	ErrDuplicateOrder 		= errors.New("duplicate order")
	ErrIllegalTransition 	= errors.New("illegal transition")
	ErrTerminalState 		= errors.New("order is in a terminal state")
	ErrDisputeWindowExpired = errors.New("dispute window expired")
	ErrDisputeAlreadyOpen 	= errors.New("dispute already open")
	ErrVersionConflict 		= errors.New("version conflict")
	ErrRefundFailed 		= errors.New("refund failed")
	ErrUnauthorized 		= errors.New("actor not permitted")
	ErrInvalidPayload 		= errors.New("invalid payload")
	ErrInvalidRefundAmount 	= errors.New("invalid refund amount")
	ErrReviewExists 		= errors.New("order already reviewed")
	ErrCaseClosed 			= errors.New("dispute case already resolved")
	// ErrUnknownOutcome is returned when a store write timed out; callers must re-read before retrying.
	ErrUnknownOutcome 		= errors.New("write outcome unknown")
)

// TransitionError describes a rejected action together with the state it was rejected in.
type TransitionError struct {
	Err 	error
	OrderID string
	Action 	Action
	Current OrderStatus
	Allowed []Action
	Detail 	string
}

func (e *TransitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "order %s: %s from %s: %v", e.OrderID, e.Action, e.Current, e.Err)
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	if len(e.Allowed) > 0 {
		names := make([]string, len(e.Allowed))
		for i, a := range e.Allowed {
			names[i] = a.String()
		}
		fmt.Fprintf(&b, "; allowed: %s", strings.Join(names, ","))
	}
	return b.String()
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

var kinds = []struct {
	err 	error
	kind 	string
}{
	{ErrNotFound, "not_found"},
	{ErrDuplicateOrder, "duplicate_order"},
	{ErrIllegalTransition, "illegal_transition"},
	{ErrTerminalState, "terminal_state"},
	{ErrDisputeWindowExpired, "dispute_window_expired"},
	{ErrDisputeAlreadyOpen, "dispute_already_open"},
	{ErrVersionConflict, "version_conflict"},
	{ErrRefundFailed, "refund_failed"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidPayload, "invalid_payload"},
	{ErrInvalidRefundAmount, "invalid_refund_amount"},
	{ErrReviewExists, "review_exists"},
	{ErrCaseClosed, "case_closed"},
	{ErrUnknownOutcome, "unknown_outcome"},
}

// ErrorKind returns the machine-readable kind of err, or "internal" for errors outside the taxonomy.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// IsKind reports whether err belongs to the domain error taxonomy.
func IsKind(err error) bool {
	return ErrorKind(err) != "internal"
}
