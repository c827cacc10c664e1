package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
)

// CreateOrder stores a new order in pending at version 1. Creation is not a transition
// and writes no audit record; replay starts from pending.
func (e *DefaultEngine) CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*domain.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := e.now()
	id := input.OrderID
	if id == "" {
		id = e.newID()
	}
	order := &domain.Order{
		ID: 		id,
		ListingID: 	input.ListingID,
		BuyerID: 	input.BuyerID,
		SellerID: 	input.SellerID,
		Quantity: 	input.Quantity,
		UnitPrice: 	input.UnitPrice,
		Currency: 	strings.ToUpper(input.Currency),
		Status: 	domain.StatusPending,
		CreatedAt: 	now,
		UpdatedAt: 	now,
		Version: 	1,
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	created, err := e.OrderRepo.Create(sctx, order)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			return nil, err
		}
		return nil, fmt.Errorf("create order %s: %w", id, err)
	}

	slog.Info("order created",
		"order_id", created.ID,
		"listing_id", created.ListingID,
		"buyer_id", created.BuyerID,
		"seller_id", created.SellerID,
		"total", created.Total(),
		"currency", created.Currency,
	)
	e.recordOrderCreated(created)
	e.refreshCache(ctx, created)
	return created, nil
}

func validateCreate(input *orderdto.CreateOrderInput) error {
	switch {
	case input == nil:
		return fmt.Errorf("%w: empty order", domain.ErrInvalidPayload)
	case input.ListingID == "" || input.BuyerID == "" || input.SellerID == "":
		return fmt.Errorf("%w: listing, buyer and seller ids are required", domain.ErrInvalidPayload)
	case input.BuyerID == input.SellerID:
		return fmt.Errorf("%w: buyer and seller must differ", domain.ErrInvalidPayload)
	case input.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidPayload)
	case input.UnitPrice < 0:
		return fmt.Errorf("%w: unit price must not be negative", domain.ErrInvalidPayload)
	case input.UnitPrice > 0 && input.Quantity > math.MaxInt64/input.UnitPrice:
		return fmt.Errorf("%w: order total overflows", domain.ErrInvalidPayload)
	case len(input.Currency) != 3:
		return fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidPayload)
	}
	return nil
}
