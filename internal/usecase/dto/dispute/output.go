package disputedto

import (
	"github.com/LavaJover/marketplace-order-service/internal/domain"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
)

type CasesPage struct {
	Cases 		[]*domain.DisputeCase
	Pagination 	orderdto.Pagination
}

// ResolutionOutcome is the committed result of resolving a case.
type ResolutionOutcome struct {
	Order 			*domain.Order
	Case 			*domain.DisputeCase
	Action 			domain.ResolutionAction
	RefundedAmount 	int64
}
