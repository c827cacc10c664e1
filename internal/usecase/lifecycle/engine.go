package lifecycle

import (
	"context"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/metrics"
	orderdto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/order"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/transition"
	"github.com/google/uuid"
)

// Engine is the single writer of order state.
type Engine interface {
	Apply(ctx context.Context, in ApplyInput) (*domain.Order, error)
	CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*domain.Order, error)

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, input *orderdto.ListOrdersInput) (*orderdto.OrdersPage, error)
	GetAuditTrail(ctx context.Context, orderID string) ([]domain.AuditRecord, error)
	ReplayStatus(ctx context.Context, orderID string) (domain.OrderStatus, error)
	ListReviews(ctx context.Context, listingID string) ([]*domain.Review, error)
}

type ApplyInput struct {
	OrderID string
	ActorID string
	Role 	domain.ActorRole
	Action 	domain.Action
	Payload Payload
}

// Payload carries the action-specific arguments. Unused fields are ignored.
type Payload struct {
	Reason 		string
	Note 		string
	// CaseID pins a resolution to a specific case.
	CaseID 		string
	Amount 		*int64
	AssigneeID 	string
	Rating 		int
	Comment 	string
	Metadata 	map[string]string
}

// CasePlan is the dispute side of a transition, prepared before commit.
type CasePlan struct {
	Change 		*domain.CaseChange
	// RestoreTo replaces the table target for close_no_action.
	RestoreTo 	domain.OrderStatus
	Refunded 	int64
	Metadata 	map[string]string
}

// CasePlanner prepares dispute case changes for dispute-related actions.
// PlanResolution performs the refund for refund actions; it must be safe to call again
// for the same case on retry.
type CasePlanner interface {
	PlanOpen(ctx context.Context, order *domain.Order, in ApplyInput, now time.Time) (*CasePlan, error)
	PlanResolution(ctx context.Context, order *domain.Order, in ApplyInput, now time.Time) (*CasePlan, error)
}

type Options struct {
	MaxAttempts 	int
	StoreTimeout 	time.Duration
	DisputeWindow 	time.Duration
	Now 			func() time.Time
	NewID 			func() string
}

type DefaultEngine struct {
	OrderRepo 	domain.OrderRepository
	AuditRepo 	domain.AuditRepository
	ReviewRepo 	domain.ReviewRepository
	Planner 	CasePlanner
	Cache 		domain.OrderCache
	Metrics 	*metrics.LifecycleMetrics

	validator 		transition.Validator
	maxAttempts 	int
	storeTimeout 	time.Duration
	now 			func() time.Time
	newID 			func() string
}

func NewDefaultEngine(
	orderRepo domain.OrderRepository,
	auditRepo domain.AuditRepository,
	reviewRepo domain.ReviewRepository,
	planner CasePlanner,
	cache domain.OrderCache,
	lifecycleMetrics *metrics.LifecycleMetrics,
	opts Options) *DefaultEngine {

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}

	return &DefaultEngine{
		OrderRepo: 		orderRepo,
		AuditRepo: 		auditRepo,
		ReviewRepo: 	reviewRepo,
		Planner: 		planner,
		Cache: 			cache,
		Metrics: 		lifecycleMetrics,
		validator: 		transition.NewValidator(opts.DisputeWindow),
		maxAttempts: 	opts.MaxAttempts,
		storeTimeout: 	opts.StoreTimeout,
		now: 			opts.Now,
		newID: 			opts.NewID,
	}
}

// storeCtx bounds a single store call by the configured timeout.
func (e *DefaultEngine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.storeTimeout)
}
