package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
	"github.com/jaevor/go-nanoid"
)

// RefundPolicy bounds partial refunds: MinAmount <= amount < total and amount <= total*MaxRatio.
type RefundPolicy struct {
	MinAmount 	int64
	MaxRatio 	float64
}

// DefaultCasePlanner prepares the dispute case side of order transitions
// and issues refunds before the transition is committed.
type DefaultCasePlanner struct {
	cases 		domain.DisputeRepository
	payments 	domain.PaymentGateway
	policy 		RefundPolicy
	newID 		func() string
}

func NewDefaultCasePlanner(
	cases domain.DisputeRepository,
	payments domain.PaymentGateway,
	policy RefundPolicy,
	) (*DefaultCasePlanner, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	if policy.MaxRatio <= 0 || policy.MaxRatio > 1 {
		policy.MaxRatio = 1
	}
	if policy.MinAmount < 1 {
		policy.MinAmount = 1
	}
	return &DefaultCasePlanner{
		cases: 		cases,
		payments: 	payments,
		policy: 	policy,
		newID: 		idGenerator,
	}, nil
}

var _ lifecycle.CasePlanner = (*DefaultCasePlanner)(nil)

func (p *DefaultCasePlanner) PlanOpen(ctx context.Context, order *domain.Order, in lifecycle.ApplyInput, now time.Time) (*lifecycle.CasePlan, error) {
	if in.Payload.Reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", domain.ErrInvalidPayload)
	}

	opened := domain.TimelineEntry{
		Type: 		domain.CaseEventOpened,
		ActorID: 	in.ActorID,
		ActorRole: 	in.Role,
		Note: 		in.Payload.Reason,
		OccurredAt: now,
	}
	c := &domain.DisputeCase{
		ID: 					p.newID(),
		OrderID: 				order.ID,
		OpenedBy: 				in.Role,
		OpenedByID: 			in.ActorID,
		Reason: 				in.Payload.Reason,
		Status: 				domain.CaseOpen,
		OrderStatusOriginal: 	order.Status,
		CreatedAt: 				now,
		UpdatedAt: 				now,
		Version: 				1,
	}
	return &lifecycle.CasePlan{
		Change: &domain.CaseChange{
			Case: 		c,
			Insert: 	true,
			Entries: 	[]domain.TimelineEntry{opened},
		},
		Metadata: map[string]string{"case_id": c.ID},
	}, nil
}

func (p *DefaultCasePlanner) PlanResolution(ctx context.Context, order *domain.Order, in lifecycle.ApplyInput, now time.Time) (*lifecycle.CasePlan, error) {
	active, err := p.cases.GetActiveByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s has no active dispute", domain.ErrInvalidPayload, order.ID)
		}
		return nil, err
	}
	if in.Payload.CaseID != "" && in.Payload.CaseID != active.ID {
		return nil, fmt.Errorf("case %s: %w", in.Payload.CaseID, domain.ErrCaseClosed)
	}

	next := active.Clone()
	next.UpdatedAt = now
	plan := &lifecycle.CasePlan{
		Change: &domain.CaseChange{
			Case: 				next,
			ExpectedVersion: 	active.Version,
		},
		Metadata: map[string]string{"case_id": active.ID},
	}
	taken := domain.TimelineEntry{
		Type: 		domain.CaseEventActionTaken,
		ActorID: 	in.ActorID,
		ActorRole: 	in.Role,
		Note: 		resolutionNote(in),
		OccurredAt: now,
	}

	switch in.Action {
	case domain.ActionEscalate:
		next.Status = domain.CaseEscalated
		next.EscalationLevel++
		next.AssignedOperatorID = in.Payload.AssigneeID
		if next.AssignedOperatorID == "" {
			next.AssignedOperatorID = in.ActorID
		}
		plan.Change.Entries = []domain.TimelineEntry{taken}
		plan.Metadata["escalation_level"] = strconv.Itoa(next.EscalationLevel)
		return plan, nil

	case domain.ActionCloseNoAction:
		plan.RestoreTo = active.OrderStatusOriginal

	case domain.ActionRefundFull:
		if order.Total() < 0 {
			return nil, fmt.Errorf("%w: order total %d cannot be refunded", domain.ErrInvalidRefundAmount, order.Total())
		}
		plan.Refunded = order.Total()

	case domain.ActionRefundPartial:
		if in.Payload.Amount == nil {
			return nil, fmt.Errorf("%w: partial refund needs an amount", domain.ErrInvalidRefundAmount)
		}
		if err := p.checkPartial(*in.Payload.Amount, order.Total()); err != nil {
			return nil, err
		}
		plan.Refunded = *in.Payload.Amount

	default:
		return nil, fmt.Errorf("%w: %s is not a resolution", domain.ErrInvalidPayload, in.Action)
	}

	if plan.Refunded > 0 {
		if err := p.refund(ctx, order, active.ID, plan.Refunded); err != nil {
			return nil, err
		}
		amount := plan.Refunded
		next.ResolutionAmount = &amount
		plan.Metadata["refund_amount"] = strconv.FormatInt(amount, 10)
	}

	resolvedAt := now
	next.Status = domain.CaseResolved
	next.ResolutionAction = domain.ResolutionFromAction(in.Action)
	next.ResolvedAt = &resolvedAt
	if next.AssignedOperatorID == "" {
		next.AssignedOperatorID = in.ActorID
	}
	plan.Change.Entries = []domain.TimelineEntry{
		taken,
		{
			Type: 		domain.CaseEventClosed,
			ActorID: 	in.ActorID,
			ActorRole: 	in.Role,
			OccurredAt: now,
		},
	}
	plan.Metadata["resolution"] = next.ResolutionAction.String()
	return plan, nil
}

func (p *DefaultCasePlanner) checkPartial(amount, total int64) error {
	switch {
	case amount < p.policy.MinAmount:
		return fmt.Errorf("%w: %d is below the minimum %d", domain.ErrInvalidRefundAmount, amount, p.policy.MinAmount)
	case amount >= total:
		return fmt.Errorf("%w: %d must be less than the order total %d", domain.ErrInvalidRefundAmount, amount, total)
	case float64(amount) > float64(total)*p.policy.MaxRatio:
		return fmt.Errorf("%w: %d exceeds %.2f of the order total", domain.ErrInvalidRefundAmount, amount, p.policy.MaxRatio)
	}
	return nil
}

// refund is keyed by order and case so a retried resolution is charged once.
func (p *DefaultCasePlanner) refund(ctx context.Context, order *domain.Order, caseID string, amount int64) error {
	if p.payments == nil {
		return fmt.Errorf("%w: payment gateway is not configured", domain.ErrRefundFailed)
	}
	req := domain.RefundRequest{
		OrderID: 		order.ID,
		IdempotencyKey: fmt.Sprintf("%s_dispute_%s", order.ID, caseID),
		Amount: 		amount,
		Currency: 		order.Currency,
	}
	if err := p.payments.Refund(ctx, req); err != nil {
		slog.Error("refund failed", "order_id", order.ID, "case_id", caseID, "amount", amount, "error", err)
		if errors.Is(err, domain.ErrRefundFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrRefundFailed, err)
	}
	slog.Info("refund issued", "order_id", order.ID, "case_id", caseID, "amount", amount, "currency", order.Currency)
	return nil
}

func resolutionNote(in lifecycle.ApplyInput) string {
	if in.Payload.Note != "" {
		return in.Action.String() + ": " + in.Payload.Note
	}
	return in.Action.String()
}
