package disputedto

import "github.com/LavaJover/marketplace-order-service/internal/domain"

type OpenDisputeInput struct {
	OrderID 	string
	ActorID 	string
	Role 		domain.ActorRole
	Reason 		string
}

type AddEvidenceInput struct {
	CaseID 	string
	ActorID string
	Role 	domain.ActorRole
	Note 	string
}

type ResolveInput struct {
	CaseID 		string
	OperatorID 	string
	Action 		domain.ResolutionAction
	// Amount is required for refund_partial, in minor units.
	Amount 		*int64
	// AssigneeID is the operator an escalated case is handed to.
	AssigneeID 	string
	Note 		string
}

type ListCasesInput struct {
	OrderID 	string
	OperatorID 	string
	Statuses 	[]string
	Page 		int
	Limit 		int
}
