package transition

import (
	"testing"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newOrder(status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID: 		"order-1",
		ListingID: 	"listing-1",
		BuyerID: 	"buyer-1",
		SellerID: 	"seller-1",
		Quantity: 	2,
		UnitPrice: 	1500,
		Currency: 	"USD",
		Status: 	status,
		Version: 	1,
	}
}

func actorFor(role domain.ActorRole) string {
	switch role {
	case domain.RoleBuyer:
		return "buyer-1"
	case domain.RoleSeller:
		return "seller-1"
	case domain.RoleOperator:
		return "operator-1"
	default:
		return "carrier-1"
	}
}

func TestCanTransition_Table(t *testing.T) {
	v := NewValidator(14 * 24 * time.Hour)

	cases := []struct {
		name 	string
		status 	domain.OrderStatus
		role 	domain.ActorRole
		action 	domain.Action
		target 	domain.OrderStatus
	}{
		{"buyer cancels pending", domain.StatusPending, domain.RoleBuyer, domain.ActionCancel, domain.StatusCancelled},
		{"seller cancels pending", domain.StatusPending, domain.RoleSeller, domain.ActionCancel, domain.StatusCancelled},
		{"operator cancels pending", domain.StatusPending, domain.RoleOperator, domain.ActionCancel, domain.StatusCancelled},
		{"seller confirms", domain.StatusPending, domain.RoleSeller, domain.ActionConfirm, domain.StatusConfirmed},
		{"buyer cancels confirmed", domain.StatusConfirmed, domain.RoleBuyer, domain.ActionCancel, domain.StatusCancelled},
		{"seller processes", domain.StatusConfirmed, domain.RoleSeller, domain.ActionProcess, domain.StatusProcessing},
		{"seller ships confirmed", domain.StatusConfirmed, domain.RoleSeller, domain.ActionShip, domain.StatusShipped},
		{"seller ships processing", domain.StatusProcessing, domain.RoleSeller, domain.ActionShip, domain.StatusShipped},
		{"carrier delivers", domain.StatusShipped, domain.RoleSystem, domain.ActionDeliver, domain.StatusDelivered},
		{"buyer disputes shipped", domain.StatusShipped, domain.RoleBuyer, domain.ActionDispute, domain.StatusDisputed},
		{"buyer reviews", domain.StatusDelivered, domain.RoleBuyer, domain.ActionReview, domain.StatusDelivered},
		{"operator refunds", domain.StatusDisputed, domain.RoleOperator, domain.ActionRefundFull, domain.StatusRefunded},
		{"operator partially refunds", domain.StatusDisputed, domain.RoleOperator, domain.ActionRefundPartial, domain.StatusRefunded},
		{"operator escalates", domain.StatusDisputed, domain.RoleOperator, domain.ActionEscalate, domain.StatusDisputed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := v.CanTransition(newOrder(tc.status), tc.role, actorFor(tc.role), tc.action, testNow)
			require.True(t, d.Allowed, "reason: %v", d.Reason)
			assert.Equal(t, tc.target, d.Target)
			assert.False(t, d.RestorePrior)
		})
	}
}

func TestCanTransition_CloseNoActionRestoresPrior(t *testing.T) {
	v := NewValidator(time.Hour)

	d := v.CanTransition(newOrder(domain.StatusDisputed), domain.RoleOperator, "operator-1", domain.ActionCloseNoAction, testNow)

	require.True(t, d.Allowed)
	assert.True(t, d.RestorePrior)
	assert.Equal(t, domain.StatusUnknown, d.Target)
}

func TestCanTransition_TerminalStatesRejectEverything(t *testing.T) {
	v := NewValidator(time.Hour)

	for _, status := range []domain.OrderStatus{domain.StatusCancelled, domain.StatusRefunded} {
		for _, action := range domain.AllActions {
			for _, role := range []domain.ActorRole{domain.RoleBuyer, domain.RoleSeller, domain.RoleOperator, domain.RoleSystem} {
				d := v.CanTransition(newOrder(status), role, actorFor(role), action, testNow)
				assert.False(t, d.Allowed)
				assert.ErrorIs(t, d.Reason, domain.ErrTerminalState, "%s %s by %s", status, action, role)
			}
		}
	}
}

func TestCanTransition_CancelAfterShipIsIllegal(t *testing.T) {
	v := NewValidator(time.Hour)

	for _, status := range []domain.OrderStatus{domain.StatusShipped, domain.StatusDelivered, domain.StatusDisputed} {
		d := v.CanTransition(newOrder(status), domain.RoleBuyer, "buyer-1", domain.ActionCancel, testNow)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Reason, domain.ErrIllegalTransition, status.String())
	}
}

func TestCanTransition_WrongRoleIsUnauthorized(t *testing.T) {
	v := NewValidator(time.Hour)

	d := v.CanTransition(newOrder(domain.StatusPending), domain.RoleBuyer, "buyer-1", domain.ActionConfirm, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)

	d = v.CanTransition(newOrder(domain.StatusProcessing), domain.RoleBuyer, "buyer-1", domain.ActionCancel, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)

	d = v.CanTransition(newOrder(domain.StatusDisputed), domain.RoleBuyer, "buyer-1", domain.ActionRefundFull, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)

	d = v.CanTransition(newOrder(domain.StatusShipped), domain.RoleSeller, "seller-1", domain.ActionDeliver, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)
}

func TestCanTransition_ForeignActorIsUnauthorized(t *testing.T) {
	v := NewValidator(time.Hour)

	d := v.CanTransition(newOrder(domain.StatusPending), domain.RoleBuyer, "buyer-2", domain.ActionCancel, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)

	d = v.CanTransition(newOrder(domain.StatusPending), domain.RoleSeller, "seller-2", domain.ActionConfirm, testNow)
	assert.ErrorIs(t, d.Reason, domain.ErrUnauthorized)
}

func TestCanTransition_DisputeWindow(t *testing.T) {
	v := NewValidator(72 * time.Hour)
	order := newOrder(domain.StatusDelivered)

	deliveredAt := testNow.Add(-48 * time.Hour)
	order.DeliveredAt = &deliveredAt
	d := v.CanTransition(order, domain.RoleBuyer, "buyer-1", domain.ActionDispute, testNow)
	assert.True(t, d.Allowed)

	deliveredAt = testNow.Add(-73 * time.Hour)
	order.DeliveredAt = &deliveredAt
	d = v.CanTransition(order, domain.RoleBuyer, "buyer-1", domain.ActionDispute, testNow)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Reason, domain.ErrDisputeWindowExpired)
}

func TestCanTransition_SecondDisputeReportsAlreadyOpen(t *testing.T) {
	v := NewValidator(time.Hour)

	d := v.CanTransition(newOrder(domain.StatusDisputed), domain.RoleBuyer, "buyer-1", domain.ActionDispute, testNow)

	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Reason, domain.ErrDisputeAlreadyOpen)
}

func TestCanTransition_SecondReviewRejected(t *testing.T) {
	v := NewValidator(time.Hour)
	order := newOrder(domain.StatusDelivered)
	order.Reviewed = true

	d := v.CanTransition(order, domain.RoleBuyer, "buyer-1", domain.ActionReview, testNow)

	assert.ErrorIs(t, d.Reason, domain.ErrReviewExists)
}

func TestCanTransition_IsPure(t *testing.T) {
	v := NewValidator(time.Hour)
	order := newOrder(domain.StatusConfirmed)

	first := v.CanTransition(order, domain.RoleSeller, "seller-1", domain.ActionShip, testNow)
	second := v.CanTransition(order, domain.RoleSeller, "seller-1", domain.ActionShip, testNow)

	assert.Equal(t, first, second)
	assert.Equal(t, domain.StatusConfirmed, order.Status)
}

func TestCanTransition_RejectionListsOptions(t *testing.T) {
	v := NewValidator(time.Hour)

	d := v.CanTransition(newOrder(domain.StatusConfirmed), domain.RoleSeller, "seller-1", domain.ActionDeliver, testNow)

	assert.ErrorIs(t, d.Reason, domain.ErrIllegalTransition)
	assert.Equal(t, []domain.Action{domain.ActionProcess, domain.ActionShip, domain.ActionCancel}, d.Options)
}

func TestEdges(t *testing.T) {
	assert.True(t, IsEdge(domain.StatusPending, domain.StatusConfirmed))
	assert.True(t, IsEdge(domain.StatusDisputed, domain.StatusShipped))
	assert.True(t, IsEdge(domain.StatusDisputed, domain.StatusDelivered))
	assert.True(t, IsEdge(domain.StatusDelivered, domain.StatusDelivered))
	assert.False(t, IsEdge(domain.StatusPending, domain.StatusShipped))
	assert.False(t, IsEdge(domain.StatusCancelled, domain.StatusPending))
	assert.False(t, IsEdge(domain.StatusRefunded, domain.StatusDisputed))
	assert.False(t, IsEdge(domain.StatusDisputed, domain.StatusPending))

	edges := Edges()
	assert.NotContains(t, edges, domain.StatusCancelled)
	assert.NotContains(t, edges, domain.StatusRefunded)
	assert.ElementsMatch(t, []domain.OrderStatus{domain.StatusCancelled, domain.StatusConfirmed}, edges[domain.StatusPending])
}
