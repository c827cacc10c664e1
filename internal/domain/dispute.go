package domain

import (
	"context"
	"fmt"
	"time"
)

type CaseStatus uint8

const (
	CaseUnknown CaseStatus = iota
	CaseOpen
	CaseUnderReview
	CaseResolved
	CaseEscalated
)

func (s CaseStatus) String() string {
	switch s {
	case CaseOpen:
		return "open"
	case CaseUnderReview:
		return "under_review"
	case CaseResolved:
		return "resolved"
	case CaseEscalated:
		return "escalated"
	default:
		return "unknown"
	}
}

func ParseCaseStatus(v string) (CaseStatus, error) {
	for _, s := range []CaseStatus{CaseOpen, CaseUnderReview, CaseResolved, CaseEscalated} {
		if s.String() == v {
			return s, nil
		}
	}
	return CaseUnknown, fmt.Errorf("%w: unknown case status %q", ErrInvalidPayload, v)
}

func (s CaseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CaseStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseCaseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type ResolutionAction uint8

const (
	ResolutionNone ResolutionAction = iota
	ResolutionRefundFull
	ResolutionRefundPartial
	ResolutionCloseNoAction
	ResolutionEscalate
)

func (r ResolutionAction) String() string {
	switch r {
	case ResolutionRefundFull:
		return "refund_full"
	case ResolutionRefundPartial:
		return "refund_partial"
	case ResolutionCloseNoAction:
		return "close_no_action"
	case ResolutionEscalate:
		return "escalate"
	default:
		return "none"
	}
}

// Action is the order action that commits this resolution.
func (r ResolutionAction) Action() Action {
	switch r {
	case ResolutionRefundFull:
		return ActionRefundFull
	case ResolutionRefundPartial:
		return ActionRefundPartial
	case ResolutionCloseNoAction:
		return ActionCloseNoAction
	case ResolutionEscalate:
		return ActionEscalate
	default:
		return ActionUnknown
	}
}

func ResolutionFromAction(a Action) ResolutionAction {
	switch a {
	case ActionRefundFull:
		return ResolutionRefundFull
	case ActionRefundPartial:
		return ResolutionRefundPartial
	case ActionCloseNoAction:
		return ResolutionCloseNoAction
	case ActionEscalate:
		return ResolutionEscalate
	default:
		return ResolutionNone
	}
}

func ParseResolutionAction(v string) (ResolutionAction, error) {
	for _, r := range []ResolutionAction{ResolutionRefundFull, ResolutionRefundPartial, ResolutionCloseNoAction, ResolutionEscalate} {
		if r.String() == v {
			return r, nil
		}
	}
	return ResolutionNone, fmt.Errorf("%w: unknown resolution action %q", ErrInvalidPayload, v)
}

func (r ResolutionAction) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ResolutionAction) UnmarshalText(b []byte) error {
	if string(b) == "none" || len(b) == 0 {
		*r = ResolutionNone
		return nil
	}
	parsed, err := ParseResolutionAction(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type CaseEventType string

const (
	CaseEventOpened 		CaseEventType = "opened"
	CaseEventEvidenceAdded 	CaseEventType = "evidence_added"
	CaseEventActionTaken 	CaseEventType = "action_taken"
	CaseEventClosed 		CaseEventType = "closed"
)

type TimelineEntry struct {
	Type 		CaseEventType
	ActorID 	string
	ActorRole 	ActorRole
	Note 		string
	OccurredAt 	time.Time
}

type DisputeCase struct {
	ID 					string
	OrderID 			string
	OpenedBy 			ActorRole
	OpenedByID 			string
	Reason 				string
	Status 				CaseStatus
	// OrderStatusOriginal is restored on close_no_action.
	OrderStatusOriginal OrderStatus
	ResolutionAction 	ResolutionAction
	ResolutionAmount 	*int64
	AssignedOperatorID 	string
	EscalationLevel 	int
	Timeline 			[]TimelineEntry
	CreatedAt 			time.Time
	UpdatedAt 			time.Time
	ResolvedAt 			*time.Time
	Version 			int64
}

// IsActive reports whether the case still holds its order in disputed status.
func (c *DisputeCase) IsActive() bool {
	return c.Status != CaseResolved
}

func (c *DisputeCase) Clone() *DisputeCase {
	cp := *c
	cp.Timeline = append([]TimelineEntry(nil), c.Timeline...)
	if c.ResolutionAmount != nil {
		amount := *c.ResolutionAmount
		cp.ResolutionAmount = &amount
	}
	if c.ResolvedAt != nil {
		at := *c.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}

// CaseChange is the dispute side of a committed order transition.
// Insert creates Case; otherwise Case replaces the stored case at ExpectedVersion.
// Entries are appended to the case timeline.
type CaseChange struct {
	Case 			*DisputeCase
	Insert 			bool
	ExpectedVersion int64
	Entries 		[]TimelineEntry
}

type CaseFilter struct {
	OrderID 	string
	OperatorID 	string
	Statuses 	[]CaseStatus
	Page 		int
	Limit 		int
}

func (f *CaseFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

type DisputeRepository interface {
	GetCase(ctx context.Context, caseID string) (*DisputeCase, error)
	// GetLatestByOrder returns the most recent case for the order, active or resolved.
	GetLatestByOrder(ctx context.Context, orderID string) (*DisputeCase, error)
	GetActiveByOrder(ctx context.Context, orderID string) (*DisputeCase, error)
	ListCases(ctx context.Context, filter CaseFilter) ([]*DisputeCase, int64, error)
	// UpdateCase replaces the case if its stored version equals expectedVersion.
	UpdateCase(ctx context.Context, c *DisputeCase, expectedVersion int64, entries ...TimelineEntry) (*DisputeCase, error)
	FindStaleOpen(ctx context.Context, openedBefore time.Time, limit int) ([]*DisputeCase, error)
}
