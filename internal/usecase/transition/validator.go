package transition

import (
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

type rule struct {
	roles 	[]domain.ActorRole
	target 	domain.OrderStatus
	// restorePrior marks close_no_action: the target comes from the dispute case.
	restorePrior bool
}

var (
	buyer 	= domain.RoleBuyer
	seller 	= domain.RoleSeller
	op 		= domain.RoleOperator
	system 	= domain.RoleSystem
)

// table is the authoritative transition table. Terminal statuses have no entry.
var table = map[domain.OrderStatus]map[domain.Action]rule{
	domain.StatusPending: {
		domain.ActionCancel: 	{roles: []domain.ActorRole{buyer, seller, op}, target: domain.StatusCancelled},
		domain.ActionConfirm: 	{roles: []domain.ActorRole{seller}, target: domain.StatusConfirmed},
	},
	domain.StatusConfirmed: {
		domain.ActionCancel: 	{roles: []domain.ActorRole{buyer, seller}, target: domain.StatusCancelled},
		domain.ActionProcess: 	{roles: []domain.ActorRole{seller}, target: domain.StatusProcessing},
		domain.ActionShip: 		{roles: []domain.ActorRole{seller}, target: domain.StatusShipped},
	},
	domain.StatusProcessing: {
		domain.ActionCancel: 	{roles: []domain.ActorRole{seller}, target: domain.StatusCancelled},
		domain.ActionShip: 		{roles: []domain.ActorRole{seller}, target: domain.StatusShipped},
	},
	domain.StatusShipped: {
		domain.ActionDeliver: 	{roles: []domain.ActorRole{system}, target: domain.StatusDelivered},
		domain.ActionDispute: 	{roles: []domain.ActorRole{buyer}, target: domain.StatusDisputed},
	},
	domain.StatusDelivered: {
		domain.ActionDispute: 	{roles: []domain.ActorRole{buyer}, target: domain.StatusDisputed},
		domain.ActionReview: 	{roles: []domain.ActorRole{buyer}, target: domain.StatusDelivered},
	},
	domain.StatusDisputed: {
		domain.ActionDispute: 		{roles: []domain.ActorRole{buyer}, target: domain.StatusDisputed},
		domain.ActionRefundFull: 	{roles: []domain.ActorRole{op}, target: domain.StatusRefunded},
		domain.ActionRefundPartial: {roles: []domain.ActorRole{op}, target: domain.StatusRefunded},
		domain.ActionCloseNoAction: {roles: []domain.ActorRole{op}, restorePrior: true},
		domain.ActionEscalate: 		{roles: []domain.ActorRole{op}, target: domain.StatusDisputed},
	},
}

// disputeOrigins are the statuses a dispute can be opened from and closed back to.
var disputeOrigins = []domain.OrderStatus{domain.StatusShipped, domain.StatusDelivered}

type Decision struct {
	Allowed 		bool
	Target 			domain.OrderStatus
	RestorePrior 	bool
	// Reason is one of the domain sentinel errors when Allowed is false.
	Reason 			error
	Detail 			string
	// Options lists what the role may attempt from the current status.
	Options 		[]domain.Action
}

type Validator struct {
	// DisputeWindow bounds how long after delivery a buyer may open a dispute.
	DisputeWindow time.Duration
}

func NewValidator(disputeWindow time.Duration) Validator {
	return Validator{DisputeWindow: disputeWindow}
}

// CanTransition decides whether actor may apply action to order at time now.
// It is pure: the same inputs always yield the same decision.
func (v Validator) CanTransition(order domain.Order, role domain.ActorRole, actorID string, action domain.Action, now time.Time) Decision {
	allowed := ActionsFor(order.Status, role)

	if order.Status.IsTerminal() {
		return Decision{Reason: domain.ErrTerminalState, Options: allowed}
	}
	rules, ok := table[order.Status]
	if !ok {
		return Decision{Reason: domain.ErrIllegalTransition, Detail: "undefined status", Options: allowed}
	}
	r, ok := rules[action]
	if !ok {
		return Decision{Reason: domain.ErrIllegalTransition, Options: allowed}
	}
	if !hasRole(r.roles, role) {
		return Decision{Reason: domain.ErrUnauthorized, Detail: role.String() + " may not " + action.String(), Options: allowed}
	}
	if !owns(order, role, actorID) {
		return Decision{Reason: domain.ErrUnauthorized, Detail: "actor is not a party to the order", Options: allowed}
	}

	switch action {
	case domain.ActionDispute:
		if order.Status == domain.StatusDisputed {
			return Decision{Reason: domain.ErrDisputeAlreadyOpen, Options: allowed}
		}
		if order.Status == domain.StatusDelivered && v.windowExpired(order, now) {
			return Decision{Reason: domain.ErrDisputeWindowExpired, Options: allowed}
		}
	case domain.ActionReview:
		if order.Reviewed {
			return Decision{Reason: domain.ErrReviewExists, Options: allowed}
		}
	}

	return Decision{Allowed: true, Target: r.target, RestorePrior: r.restorePrior}
}

func (v Validator) windowExpired(order domain.Order, now time.Time) bool {
	if order.DeliveredAt == nil {
		return false
	}
	return now.After(order.DeliveredAt.Add(v.DisputeWindow))
}

// ActionsFor lists the actions defined for role from status, in table order.
func ActionsFor(status domain.OrderStatus, role domain.ActorRole) []domain.Action {
	rules, ok := table[status]
	if !ok {
		return nil
	}
	var out []domain.Action
	for _, a := range domain.AllActions {
		if r, ok := rules[a]; ok && hasRole(r.roles, role) {
			out = append(out, a)
		}
	}
	return out
}

// IsEdge reports whether from -> to is reachable by a single action in the table.
func IsEdge(from, to domain.OrderStatus) bool {
	for _, r := range table[from] {
		if r.restorePrior {
			if hasStatus(disputeOrigins, to) {
				return true
			}
			continue
		}
		if r.target == to {
			return true
		}
	}
	return false
}

// Edges returns every (from, to) pair of the table.
func Edges() map[domain.OrderStatus][]domain.OrderStatus {
	out := make(map[domain.OrderStatus][]domain.OrderStatus)
	for _, from := range domain.AllOrderStatuses {
		for _, to := range domain.AllOrderStatuses {
			if IsEdge(from, to) {
				out[from] = append(out[from], to)
			}
		}
	}
	return out
}

// IsDisputeOrigin reports whether a dispute may restore the order to s.
func IsDisputeOrigin(s domain.OrderStatus) bool {
	return hasStatus(disputeOrigins, s)
}

func owns(order domain.Order, role domain.ActorRole, actorID string) bool {
	switch role {
	case domain.RoleBuyer:
		return actorID != "" && actorID == order.BuyerID
	case domain.RoleSeller:
		return actorID != "" && actorID == order.SellerID
	case domain.RoleOperator, domain.RoleSystem:
		return actorID != ""
	default:
		return false
	}
}

func hasRole(roles []domain.ActorRole, role domain.ActorRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func hasStatus(statuses []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
