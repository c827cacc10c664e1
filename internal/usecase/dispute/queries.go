package dispute

import (
	"context"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	disputedto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/dispute"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
)

// GetDispute returns the latest case for the order, resolved or not.
func (m *DefaultManager) GetDispute(ctx context.Context, orderID string) (*domain.DisputeCase, error) {
	return m.cases.GetLatestByOrder(ctx, orderID)
}

func (m *DefaultManager) GetCase(ctx context.Context, caseID string) (*domain.DisputeCase, error) {
	return m.cases.GetCase(ctx, caseID)
}

func (m *DefaultManager) ListCases(ctx context.Context, input *disputedto.ListCasesInput) (*disputedto.CasesPage, error) {
	filter := domain.CaseFilter{
		OrderID: 	input.OrderID,
		OperatorID: input.OperatorID,
		Page: 		input.Page,
		Limit: 		input.Limit,
	}
	for _, s := range input.Statuses {
		status, err := domain.ParseCaseStatus(s)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Normalize()

	cases, total, err := m.cases.ListCases(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &disputedto.CasesPage{
		Cases: 		cases,
		Pagination: orderdto.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}
