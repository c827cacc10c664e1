package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
)

// GetOrder serves from the cache when possible and fills it on a miss.
func (e *DefaultEngine) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if e.Cache != nil {
		order, err := e.Cache.Get(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.Warn("order cache read failed", "order_id", orderID, "error", err)
		}
	}

	order, err := e.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	e.refreshCache(ctx, order)
	return order, nil
}

func (e *DefaultEngine) ListOrders(ctx context.Context, input *orderdto.ListOrdersInput) (*orderdto.OrdersPage, error) {
	filter := domain.OrderFilter{
		BuyerID: 	input.BuyerID,
		SellerID: 	input.SellerID,
		ListingID: 	input.ListingID,
		DateFrom: 	input.DateFrom,
		DateTo: 	input.DateTo,
		SortBy: 	input.SortBy,
		SortOrder: 	input.SortOrder,
		Page: 		input.Page,
		Limit: 		input.Limit,
	}
	for _, s := range input.Statuses {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			return nil, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Normalize()

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	orders, total, err := e.OrderRepo.List(sctx, filter)
	if err != nil {
		return nil, err
	}
	return &orderdto.OrdersPage{
		Orders: 	orders,
		Pagination: orderdto.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// GetAuditTrail returns the order's records ordered by timestamp, then insertion.
func (e *DefaultEngine) GetAuditTrail(ctx context.Context, orderID string) ([]domain.AuditRecord, error) {
	if _, err := e.load(ctx, orderID); err != nil {
		return nil, err
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.AuditRepo.GetTrail(sctx, orderID)
}

func (e *DefaultEngine) ListReviews(ctx context.Context, listingID string) ([]*domain.Review, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.ReviewRepo.ListByListing(sctx, listingID)
}
