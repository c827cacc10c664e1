package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/memory"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/metrics"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/dispute"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	buyerID 	= "buyer-1"
	sellerID 	= "seller-1"
	operatorID 	= "op-1"
	carrierID 	= "carrier-1"
)

type paymentsMock struct {
	mock.Mock
}

func (m *paymentsMock) Refund(ctx context.Context, req domain.RefundRequest) error {
	return m.Called(ctx, req).Error(0)
}

type clock struct {
	mu 	sync.Mutex
	t 	time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store 		*memory.Store
	payments 	*paymentsMock
	clock 		*clock
	metrics 	*metrics.LifecycleMetrics
	engine 		*lifecycle.DefaultEngine
}

func newFixture(t *testing.T, repo domain.OrderRepository) *fixture {
	t.Helper()
	store := memory.NewStore()
	if repo == nil {
		repo = store
	}
	payments := &paymentsMock{}
	planner, err := dispute.NewDefaultCasePlanner(store, payments, dispute.RefundPolicy{MinAmount: 1, MaxRatio: 0.9})
	require.NoError(t, err)

	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := metrics.NewLifecycleMetrics(prometheus.NewRegistry())
	engine := lifecycle.NewDefaultEngine(repo, store, store, planner, nil, m, lifecycle.Options{
		MaxAttempts: 	3,
		DisputeWindow: 	14 * 24 * time.Hour,
		Now: 			c.Now,
	})
	return &fixture{store: store, payments: payments, clock: c, metrics: m, engine: engine}
}

func (f *fixture) create(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := f.engine.CreateOrder(context.Background(), &orderdto.CreateOrderInput{
		OrderID: 	id,
		ListingID: 	"listing-1",
		BuyerID: 	buyerID,
		SellerID: 	sellerID,
		Quantity: 	2,
		UnitPrice: 	5000,
		Currency: 	"usd",
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) apply(id, actor string, role domain.ActorRole, action domain.Action, payload lifecycle.Payload) (*domain.Order, error) {
	return f.engine.Apply(context.Background(), lifecycle.ApplyInput{
		OrderID: 	id,
		ActorID: 	actor,
		Role: 		role,
		Action: 	action,
		Payload: 	payload,
	})
}

func (f *fixture) mustApply(t *testing.T, id, actor string, role domain.ActorRole, action domain.Action, payload lifecycle.Payload) *domain.Order {
	t.Helper()
	order, err := f.apply(id, actor, role, action, payload)
	require.NoError(t, err)
	return order
}

func (f *fixture) deliver(t *testing.T, id string) *domain.Order {
	t.Helper()
	f.mustApply(t, id, sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	f.mustApply(t, id, sellerID, domain.RoleSeller, domain.ActionShip, lifecycle.Payload{})
	return f.mustApply(t, id, carrierID, domain.RoleSystem, domain.ActionDeliver, lifecycle.Payload{})
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t, nil)
	order := f.create(t, "o-1")

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, int64(1), order.Version)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, int64(10000), order.Total())

	_, err := f.engine.CreateOrder(context.Background(), &orderdto.CreateOrderInput{
		OrderID: "o-1", ListingID: "l", BuyerID: "b", SellerID: "s", Quantity: 1, Currency: "USD",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateOrder)

	_, err = f.engine.CreateOrder(context.Background(), &orderdto.CreateOrderInput{
		ListingID: "l", BuyerID: "same", SellerID: "same", Quantity: 1, Currency: "USD",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestApply_HappyPathWithReview(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")

	delivered := f.deliver(t, "o-1")
	assert.Equal(t, domain.StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	reviewed := f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionReview, lifecycle.Payload{Rating: 5, Comment: "great"})
	assert.Equal(t, domain.StatusDelivered, reviewed.Status)
	assert.True(t, reviewed.Reviewed)
	assert.Equal(t, int64(5), reviewed.Version)

	trail, err := f.engine.GetAuditTrail(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, trail, 4)
	for i, r := range trail {
		assert.Equal(t, int64(i+2), r.Seq)
	}

	status, err := f.engine.ReplayStatus(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, status)

	reviews, err := f.engine.ListReviews(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	_, err = f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionReview, lifecycle.Payload{Rating: 4})
	assert.ErrorIs(t, err, domain.ErrReviewExists)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TransitionsTotal.WithLabelValues("deliver", "shipped", "delivered")))
}

func TestApply_CancelAfterShipIsIllegal(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionShip, lifecycle.Payload{})

	_, err := f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionCancel, lifecycle.Payload{})
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	var terr *domain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, domain.StatusShipped, terr.Current)
	assert.Equal(t, []domain.Action{domain.ActionDispute}, terr.Allowed)

	order, err := f.engine.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), order.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RejectionsTotal.WithLabelValues("cancel", "illegal_transition")))
}

func TestApply_CancelledOrderRejectsEverything(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionCancel, lifecycle.Payload{})

	_, err := f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "late"})
	assert.ErrorIs(t, err, domain.ErrTerminalState)
}

func TestApply_DisputeIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")

	first := f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "broken"})
	assert.Equal(t, domain.StatusDisputed, first.Status)

	second := f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "broken"})
	assert.Equal(t, first.Version, second.Version)

	page, _, err := f.store.ListCases(context.Background(), domain.CaseFilter{OrderID: "o-1"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, domain.StatusDelivered, page[0].OrderStatusOriginal)
}

func TestApply_DisputeNeedsReason(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")

	_, err := f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestApply_DisputeWindowExpired(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")

	f.clock.Advance(15 * 24 * time.Hour)
	_, err := f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "late"})
	assert.ErrorIs(t, err, domain.ErrDisputeWindowExpired)
}

func TestApply_PartialRefund(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "scratched"})

	active, err := f.store.GetActiveByOrder(context.Background(), "o-1")
	require.NoError(t, err)

	f.payments.On("Refund", mock.Anything, domain.RefundRequest{
		OrderID: 		"o-1",
		IdempotencyKey: "o-1_dispute_" + active.ID,
		Amount: 		4000,
		Currency: 		"USD",
	}).Return(nil).Once()

	amount := int64(4000)
	order := f.mustApply(t, "o-1", operatorID, domain.RoleOperator, domain.ActionRefundPartial, lifecycle.Payload{Amount: &amount})
	assert.Equal(t, domain.StatusRefunded, order.Status)

	resolved, err := f.store.GetCase(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseResolved, resolved.Status)
	assert.Equal(t, domain.ResolutionRefundPartial, resolved.ResolutionAction)
	require.NotNil(t, resolved.ResolutionAmount)
	assert.Equal(t, int64(4000), *resolved.ResolutionAmount)
	f.payments.AssertExpectations(t)
}

func TestApply_PartialRefundBounds(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "scratched"})

	for _, amount := range []int64{0, 9500, 10000, 20000} {
		a := amount
		_, err := f.apply("o-1", operatorID, domain.RoleOperator, domain.ActionRefundPartial, lifecycle.Payload{Amount: &a})
		assert.ErrorIs(t, err, domain.ErrInvalidRefundAmount, "amount %d", amount)
	}
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)

	order, err := f.engine.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisputed, order.Status)
}

func TestApply_RefundFailureLeavesOrderDisputed(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "missing"})

	f.payments.On("Refund", mock.Anything, mock.Anything).Return(errors.New("gateway down")).Once()

	_, err := f.apply("o-1", operatorID, domain.RoleOperator, domain.ActionRefundFull, lifecycle.Payload{})
	assert.ErrorIs(t, err, domain.ErrRefundFailed)

	order, err := f.engine.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisputed, order.Status)
}

func TestApply_CloseNoActionRestoresPriorStatus(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionShip, lifecycle.Payload{})
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "slow"})

	order := f.mustApply(t, "o-1", operatorID, domain.RoleOperator, domain.ActionCloseNoAction, lifecycle.Payload{})
	assert.Equal(t, domain.StatusShipped, order.Status)

	status, err := f.engine.ReplayStatus(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, status)
}

func TestApply_EscalateKeepsDisputed(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.deliver(t, "o-1")
	f.mustApply(t, "o-1", buyerID, domain.RoleBuyer, domain.ActionDispute, lifecycle.Payload{Reason: "broken"})

	order := f.mustApply(t, "o-1", operatorID, domain.RoleOperator, domain.ActionEscalate, lifecycle.Payload{AssigneeID: "op-2"})
	assert.Equal(t, domain.StatusDisputed, order.Status)

	active, err := f.store.GetActiveByOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CaseEscalated, active.Status)
	assert.Equal(t, 1, active.EscalationLevel)
	assert.Equal(t, "op-2", active.AssignedOperatorID)
}

func TestApply_WrongActor(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")

	_, err := f.apply("o-1", "seller-2", domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionConfirm, lifecycle.Payload{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestApply_MissingOrder(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.apply("nope", buyerID, domain.RoleBuyer, domain.ActionCancel, lifecycle.Payload{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// racingRepo lets another writer commit first on the initial Commit call.
type racingRepo struct {
	*memory.Store
	armed 	atomic.Bool
	race 	func()
}

func (r *racingRepo) Commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	if r.armed.CompareAndSwap(true, false) {
		r.race()
	}
	return r.Store.Commit(ctx, c)
}

func TestApply_ConflictRederivesDecision(t *testing.T) {
	repo := &racingRepo{}
	f := newFixture(t, repo)
	repo.Store = f.store
	f.create(t, "o-1")
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})

	repo.race = func() {
		_, err := f.apply("o-1", sellerID, domain.RoleSeller, domain.ActionShip, lifecycle.Payload{})
		require.NoError(t, err)
	}
	repo.armed.Store(true)

	_, err := f.apply("o-1", buyerID, domain.RoleBuyer, domain.ActionCancel, lifecycle.Payload{})
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	order, err := f.engine.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, order.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VersionConflictsTotal.WithLabelValues("cancel")))
}

type conflictingRepo struct {
	*memory.Store
	commits atomic.Int32
}

func (r *conflictingRepo) Commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	r.commits.Add(1)
	return nil, domain.ErrVersionConflict
}

func TestApply_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := &conflictingRepo{}
	f := newFixture(t, repo)
	repo.Store = f.store
	f.create(t, "o-1")

	_, err := f.apply("o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, int32(3), repo.commits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RetriesExhaustedTotal.WithLabelValues("confirm")))
}

// slowAckRepo commits and then reports the deadline as if the reply was lost.
type slowAckRepo struct {
	*memory.Store
}

func (r *slowAckRepo) Commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	if _, err := r.Store.Commit(ctx, c); err != nil {
		return nil, err
	}
	return nil, context.DeadlineExceeded
}

func TestApply_UnknownOutcome(t *testing.T) {
	repo := &slowAckRepo{}
	f := newFixture(t, repo)
	repo.Store = f.store
	f.create(t, "o-1")

	_, err := f.apply("o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})
	require.ErrorIs(t, err, domain.ErrUnknownOutcome)

	order, err := f.store.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, order.Status)
}

func TestApply_ConcurrentActionsCommitOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.mustApply(t, "o-1", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})

	var (
		wg 			sync.WaitGroup
		succeeded 	atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := domain.ActionShip
			role, actor := domain.RoleSeller, sellerID
			if i%2 == 0 {
				action = domain.ActionCancel
				role, actor = domain.RoleBuyer, buyerID
			}
			if _, err := f.apply("o-1", actor, role, action, lifecycle.Payload{}); err == nil {
				succeeded.Add(1)
			}
		}(i)
	}
	wg.Wait()

	order, err := f.store.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), order.Version)
	assert.Equal(t, int32(1), succeeded.Load())

	trail, err := f.engine.GetAuditTrail(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Len(t, trail, 2)

	status, err := f.engine.ReplayStatus(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.Status, status)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "o-1")
	f.create(t, "o-2")
	f.mustApply(t, "o-2", sellerID, domain.RoleSeller, domain.ActionConfirm, lifecycle.Payload{})

	page, err := f.engine.ListOrders(context.Background(), &orderdto.ListOrdersInput{
		BuyerID: 	buyerID,
		Statuses: 	[]string{"confirmed"},
	})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "o-2", page.Orders[0].ID)
	assert.Equal(t, int32(1), page.Pagination.TotalItems)

	_, err = f.engine.ListOrders(context.Background(), &orderdto.ListOrdersInput{Statuses: []string{"lost"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
