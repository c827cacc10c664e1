package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	publisher "github.com/LavaJover/marketplace-order-service/internal/infrastructure/kafka"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
)

const defaultCarrierID = "carrier"

// CarrierDeliveryHandler applies deliver for each carrier hand-over event.
// A redelivered event for an order that is already delivered is acknowledged.
func CarrierDeliveryHandler(engine lifecycle.Engine) publisher.Handler {
	return func(ctx context.Context, msg domain.Message) error {
		var event publisher.CarrierDeliveryEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: decode carrier delivery event: %w", domain.ErrInvalidPayload, err)
		}
		carrierID := event.CarrierID
		if carrierID == "" {
			carrierID = defaultCarrierID
		}

		metadata := map[string]string{}
		if event.TrackingNumber != "" {
			metadata["tracking_number"] = event.TrackingNumber
		}
		_, err := engine.Apply(ctx, lifecycle.ApplyInput{
			OrderID: 	event.OrderID,
			ActorID: 	carrierID,
			Role: 		domain.RoleSystem,
			Action: 	domain.ActionDeliver,
			Payload: 	lifecycle.Payload{Metadata: metadata},
		})
		var te *domain.TransitionError
		if errors.As(err, &te) && te.Current == domain.StatusDelivered {
			slog.Debug("duplicate carrier delivery ignored", "order_id", event.OrderID)
			return nil
		}
		return err
	}
}

// CheckoutCompletedHandler creates the order for each completed checkout.
func CheckoutCompletedHandler(engine lifecycle.Engine) publisher.Handler {
	return func(ctx context.Context, msg domain.Message) error {
		var event publisher.CheckoutCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: decode checkout event: %w", domain.ErrInvalidPayload, err)
		}
		_, err := engine.CreateOrder(ctx, &orderdto.CreateOrderInput{
			OrderID: 	event.OrderID,
			ListingID: 	event.ListingID,
			BuyerID: 	event.BuyerID,
			SellerID: 	event.SellerID,
			Quantity: 	event.Quantity,
			UnitPrice: 	event.UnitPrice,
			Currency: 	event.Currency,
		})
		if errors.Is(err, domain.ErrDuplicateOrder) {
			slog.Debug("duplicate checkout ignored", "order_id", event.OrderID)
			return nil
		}
		return err
	}
}
