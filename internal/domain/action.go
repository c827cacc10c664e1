package domain

import "fmt"

type Action uint8

const (
	ActionUnknown Action = iota
	ActionConfirm
	ActionProcess
	ActionShip
	ActionDeliver
	ActionCancel
	ActionDispute
	ActionReview
	ActionRefundFull
	ActionRefundPartial
	ActionCloseNoAction
	ActionEscalate
)

var AllActions = []Action{
	ActionConfirm,
	ActionProcess,
	ActionShip,
	ActionDeliver,
	ActionCancel,
	ActionDispute,
	ActionReview,
	ActionRefundFull,
	ActionRefundPartial,
	ActionCloseNoAction,
	ActionEscalate,
}

func (a Action) String() string {
	switch a {
	case ActionConfirm:
		return "confirm"
	case ActionProcess:
		return "process"
	case ActionShip:
		return "ship"
	case ActionDeliver:
		return "deliver"
	case ActionCancel:
		return "cancel"
	case ActionDispute:
		return "dispute"
	case ActionReview:
		return "review"
	case ActionRefundFull:
		return "refund_full"
	case ActionRefundPartial:
		return "refund_partial"
	case ActionCloseNoAction:
		return "close_no_action"
	case ActionEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// IsDisputeRelated reports whether the action is handled by the dispute case manager.
func (a Action) IsDisputeRelated() bool {
	return a == ActionDispute || a.IsResolution()
}

func (a Action) IsResolution() bool {
	switch a {
	case ActionRefundFull, ActionRefundPartial, ActionCloseNoAction, ActionEscalate:
		return true
	default:
		return false
	}
}

func ParseAction(v string) (Action, error) {
	for _, a := range AllActions {
		if a.String() == v {
			return a, nil
		}
	}
	return ActionUnknown, fmt.Errorf("%w: unknown action %q", ErrInvalidPayload, v)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type ActorRole uint8

const (
	RoleUnknown ActorRole = iota
	RoleBuyer
	RoleSeller
	RoleOperator
	// RoleSystem covers carriers and internal automation.
	RoleSystem
)

func (r ActorRole) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	case RoleOperator:
		return "operator"
	case RoleSystem:
		return "system"
	default:
		return "unknown"
	}
}

func ParseActorRole(v string) (ActorRole, error) {
	for _, r := range []ActorRole{RoleBuyer, RoleSeller, RoleOperator, RoleSystem} {
		if r.String() == v {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: unknown actor role %q", ErrInvalidPayload, v)
}

func (r ActorRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ActorRole) UnmarshalText(b []byte) error {
	parsed, err := ParseActorRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
