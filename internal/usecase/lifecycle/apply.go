package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/transition"
)

// errAlreadyApplied marks a repeated dispute: the order already has the open case.
var errAlreadyApplied = errors.New("already applied")

type pendingCommit struct {
	commit 	*domain.Commit
	plan 	*CasePlan
}

// Apply validates and commits one action. A version conflict re-runs the whole
// decision against fresh state, up to MaxAttempts times.
func (e *DefaultEngine) Apply(ctx context.Context, in ApplyInput) (*domain.Order, error) {
	start := time.Now()
	order, err := e.apply(ctx, in)
	e.recordApply(in.Action, err, start)
	return order, err
}

func (e *DefaultEngine) apply(ctx context.Context, in ApplyInput) (*domain.Order, error) {
	if in.OrderID == "" || in.Action == domain.ActionUnknown || in.Role == domain.RoleUnknown {
		return nil, fmt.Errorf("%w: order id, action and actor role are required", domain.ErrInvalidPayload)
	}

	var current *domain.Order
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		order, err := e.load(ctx, in.OrderID)
		if err != nil {
			return nil, err
		}
		current = order

		pending, err := e.prepare(ctx, order, in)
		if errors.Is(err, errAlreadyApplied) {
			slog.Debug("dispute already open, returning current order", "order_id", order.ID, "actor_id", in.ActorID)
			return order, nil
		}
		if err != nil {
			return nil, err
		}

		updated, err := e.commit(ctx, pending.commit)
		switch {
		case err == nil:
			e.afterCommit(ctx, order, updated, in, pending)
			return updated, nil
		case errors.Is(err, domain.ErrUnknownOutcome):
			slog.Error("order commit outcome unknown", "order_id", in.OrderID, "action", in.Action.String(), "error", err)
			return nil, err
		case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrDisputeAlreadyOpen):
			e.recordConflict(in.Action)
			slog.Warn("order changed concurrently, retrying",
				"order_id", in.OrderID,
				"action", in.Action.String(),
				"attempt", attempt,
			)
		case errors.Is(err, domain.ErrReviewExists):
			return nil, e.reject(order, in, err, "", nil)
		default:
			return nil, fmt.Errorf("commit order %s: %w", in.OrderID, err)
		}
	}

	e.recordRetriesExhausted(in.Action)
	return nil, &domain.TransitionError{
		Err: 		domain.ErrVersionConflict,
		OrderID: 	in.OrderID,
		Action: 	in.Action,
		Current: 	current.Status,
		Allowed: 	transition.ActionsFor(current.Status, in.Role),
		Detail: 	fmt.Sprintf("gave up after %d attempts", e.maxAttempts),
	}
}

func (e *DefaultEngine) load(ctx context.Context, orderID string) (*domain.Order, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	order, err := e.OrderRepo.Get(sctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	return order, nil
}

// prepare derives the commit from the freshly loaded order. It never writes order state.
func (e *DefaultEngine) prepare(ctx context.Context, order *domain.Order, in ApplyInput) (*pendingCommit, error) {
	now := e.now()

	decision := e.validator.CanTransition(*order, in.Role, in.ActorID, in.Action, now)
	if !decision.Allowed {
		if errors.Is(decision.Reason, domain.ErrDisputeAlreadyOpen) {
			return nil, errAlreadyApplied
		}
		return nil, e.reject(order, in, decision.Reason, decision.Detail, decision.Options)
	}

	next := order.Clone()
	next.Status = decision.Target
	next.UpdatedAt = now

	var (
		plan 	*CasePlan
		review 	*domain.Review
		err 	error
	)
	switch {
	case in.Action == domain.ActionDeliver:
		deliveredAt := now
		next.DeliveredAt = &deliveredAt
	case in.Action == domain.ActionReview:
		if in.Payload.Rating < 1 || in.Payload.Rating > 5 {
			return nil, e.reject(order, in, domain.ErrInvalidPayload, "rating must be between 1 and 5", nil)
		}
		next.Reviewed = true
		review = &domain.Review{
			ID: 		e.newID(),
			OrderID: 	order.ID,
			ListingID: 	order.ListingID,
			BuyerID: 	order.BuyerID,
			Rating: 	in.Payload.Rating,
			Comment: 	in.Payload.Comment,
			CreatedAt: 	now,
		}
	case in.Action == domain.ActionDispute:
		if e.Planner == nil {
			return nil, errors.New("dispute planner is not configured")
		}
		plan, err = e.Planner.PlanOpen(ctx, order, in, now)
	case in.Action.IsResolution():
		if e.Planner == nil {
			return nil, errors.New("dispute planner is not configured")
		}
		plan, err = e.Planner.PlanResolution(ctx, order, in, now)
	}
	if err != nil {
		if domain.IsKind(err) {
			return nil, e.reject(order, in, err, "", nil)
		}
		return nil, fmt.Errorf("plan %s for order %s: %w", in.Action, order.ID, err)
	}

	if decision.RestorePrior {
		if plan == nil || !transition.IsDisputeOrigin(plan.RestoreTo) {
			return nil, e.reject(order, in, domain.ErrIllegalTransition, "no prior status to restore", nil)
		}
		next.Status = plan.RestoreTo
	}
	if !transition.IsEdge(order.Status, next.Status) {
		return nil, e.reject(order, in, domain.ErrIllegalTransition, "target is not reachable", nil)
	}

	version := order.Version + 1
	var caseID string
	var caseChange *domain.CaseChange
	metadata := mergeMetadata(in.Payload, plan)
	if plan != nil && plan.Change != nil {
		caseChange = plan.Change
		caseID = plan.Change.Case.ID
	}

	return &pendingCommit{
		plan: plan,
		commit: &domain.Commit{
			OrderID: 			order.ID,
			ExpectedVersion: 	order.Version,
			Next: 				next,
			Case: 				caseChange,
			Review: 			review,
			Audit: domain.AuditRecord{
				ID: 		e.newID(),
				OrderID: 	order.ID,
				Seq: 		version,
				ActorID: 	in.ActorID,
				ActorRole: 	in.Role,
				Action: 	in.Action,
				FromStatus: order.Status,
				ToStatus: 	next.Status,
				Timestamp: 	now,
				Metadata: 	metadata,
			},
			Event: domain.LifecycleEvent{
				EventID: 	e.newID(),
				OrderID: 	order.ID,
				FromStatus: order.Status,
				ToStatus: 	next.Status,
				Action: 	in.Action,
				ActorID: 	in.ActorID,
				ActorRole: 	in.Role,
				Version: 	version,
				CaseID: 	caseID,
				OccurredAt: now,
			},
		},
	}, nil
}

// commit persists the transition. A store call cut short by its deadline or by the
// caller may still have committed, so it is reported as an unknown outcome.
func (e *DefaultEngine) commit(ctx context.Context, c *domain.Commit) (*domain.Order, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	updated, err := e.OrderRepo.Commit(sctx, c)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("order %s at version %d: %w: %w", c.OrderID, c.ExpectedVersion, domain.ErrUnknownOutcome, err)
	}
	if !domain.IsKind(err) && sctx.Err() != nil {
		return nil, fmt.Errorf("order %s at version %d: %w: %w", c.OrderID, c.ExpectedVersion, domain.ErrUnknownOutcome, err)
	}
	return nil, err
}

func (e *DefaultEngine) afterCommit(ctx context.Context, before, after *domain.Order, in ApplyInput, p *pendingCommit) {
	slog.Info("order transition committed",
		"order_id", after.ID,
		"action", in.Action.String(),
		"from", before.Status.String(),
		"to", after.Status.String(),
		"actor_id", in.ActorID,
		"actor_role", in.Role.String(),
		"version", after.Version,
	)
	e.recordTransition(in.Action, before.Status, after.Status)
	switch {
	case in.Action == domain.ActionDispute:
		e.recordDisputeOpened()
	case in.Action.IsResolution() && in.Action != domain.ActionEscalate:
		var refunded int64
		if p.plan != nil {
			refunded = p.plan.Refunded
		}
		e.recordDisputeResolved(in.Action, after.Currency, refunded)
	}
	e.refreshCache(context.WithoutCancel(ctx), after)
}

func (e *DefaultEngine) reject(order *domain.Order, in ApplyInput, reason error, detail string, options []domain.Action) error {
	if options == nil {
		options = transition.ActionsFor(order.Status, in.Role)
	}
	e.recordRejection(in.Action, reason)
	slog.Debug("order action rejected",
		"order_id", order.ID,
		"action", in.Action.String(),
		"status", order.Status.String(),
		"actor_role", in.Role.String(),
		"reason", reason.Error(),
	)
	return &domain.TransitionError{
		Err: 		reason,
		OrderID: 	order.ID,
		Action: 	in.Action,
		Current: 	order.Status,
		Allowed: 	options,
		Detail: 	detail,
	}
}

func (e *DefaultEngine) refreshCache(ctx context.Context, order *domain.Order) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Set(ctx, order); err != nil {
		slog.Warn("failed to refresh order cache", "order_id", order.ID, "error", err)
		if err := e.Cache.Delete(ctx, order.ID); err != nil {
			slog.Error("failed to evict stale order from cache", "order_id", order.ID, "error", err)
		}
	}
}

func mergeMetadata(p Payload, plan *CasePlan) map[string]string {
	out := make(map[string]string)
	for k, v := range p.Metadata {
		out[k] = v
	}
	if p.Reason != "" {
		out["reason"] = p.Reason
	}
	if p.Note != "" {
		out["note"] = p.Note
	}
	if plan != nil {
		for k, v := range plan.Metadata {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
