package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	disputedto "github.com/LavaJover/marketplace-order-service/internal/usecase/dto/dispute"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
)

// SystemOperatorID acts for automated escalations.
const SystemOperatorID = "system-operator"

// Applier commits order transitions. It is satisfied by the lifecycle engine.
type Applier interface {
	Apply(ctx context.Context, in lifecycle.ApplyInput) (*domain.Order, error)
}

type Manager interface {
	OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.DisputeCase, error)
	AddEvidence(ctx context.Context, input *disputedto.AddEvidenceInput) (*domain.DisputeCase, error)
	TakeUnderReview(ctx context.Context, caseID, operatorID string) (*domain.DisputeCase, error)
	Resolve(ctx context.Context, input *disputedto.ResolveInput) (*disputedto.ResolutionOutcome, error)
	EscalateStale(ctx context.Context, sla time.Duration, limit int) (int, error)

	GetDispute(ctx context.Context, orderID string) (*domain.DisputeCase, error)
	GetCase(ctx context.Context, caseID string) (*domain.DisputeCase, error)
	ListCases(ctx context.Context, input *disputedto.ListCasesInput) (*disputedto.CasesPage, error)
}

type DefaultManager struct {
	engine 		Applier
	cases 		domain.DisputeRepository
	orders 		domain.OrderRepository
	maxAttempts int
	now 		func() time.Time
}

func NewDefaultManager(
	engine Applier,
	cases domain.DisputeRepository,
	orders domain.OrderRepository,
	maxAttempts int,
	) *DefaultManager {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &DefaultManager{
		engine: 		engine,
		cases: 			cases,
		orders: 		orders,
		maxAttempts: 	maxAttempts,
		now: 			time.Now,
	}
}

// OpenDispute moves the order to disputed and returns its active case.
// Opening again while a case is active returns that case unchanged.
func (m *DefaultManager) OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.DisputeCase, error) {
	_, err := m.engine.Apply(ctx, lifecycle.ApplyInput{
		OrderID: 	input.OrderID,
		ActorID: 	input.ActorID,
		Role: 		input.Role,
		Action: 	domain.ActionDispute,
		Payload: 	lifecycle.Payload{Reason: input.Reason},
	})
	if err != nil {
		return nil, err
	}
	return m.cases.GetActiveByOrder(ctx, input.OrderID)
}

// AddEvidence appends a note to the case timeline. Only the order parties and operators may add evidence.
func (m *DefaultManager) AddEvidence(ctx context.Context, input *disputedto.AddEvidenceInput) (*domain.DisputeCase, error) {
	if input.Note == "" {
		return nil, fmt.Errorf("%w: evidence note is required", domain.ErrInvalidPayload)
	}

	return m.updateCase(ctx, input.CaseID, func(c *domain.DisputeCase) ([]domain.TimelineEntry, error) {
		if err := m.checkParty(ctx, c.OrderID, input.ActorID, input.Role); err != nil {
			return nil, err
		}
		return []domain.TimelineEntry{{
			Type: 		domain.CaseEventEvidenceAdded,
			ActorID: 	input.ActorID,
			ActorRole: 	input.Role,
			Note: 		input.Note,
			OccurredAt: m.now(),
		}}, nil
	})
}

// TakeUnderReview assigns the case to an operator. Taking a case already held by the same operator is a no-op.
func (m *DefaultManager) TakeUnderReview(ctx context.Context, caseID, operatorID string) (*domain.DisputeCase, error) {
	if operatorID == "" {
		return nil, fmt.Errorf("%w: operator id is required", domain.ErrInvalidPayload)
	}

	return m.updateCase(ctx, caseID, func(c *domain.DisputeCase) ([]domain.TimelineEntry, error) {
		if c.Status == domain.CaseUnderReview {
			if c.AssignedOperatorID == operatorID {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: case %s is under review by %s", domain.ErrIllegalTransition, c.ID, c.AssignedOperatorID)
		}
		c.Status = domain.CaseUnderReview
		c.AssignedOperatorID = operatorID
		return []domain.TimelineEntry{{
			Type: 		domain.CaseEventActionTaken,
			ActorID: 	operatorID,
			ActorRole: 	domain.RoleOperator,
			Note: 		"taken under review",
			OccurredAt: m.now(),
		}}, nil
	})
}

// Resolve applies the operator's resolution to the case's order.
func (m *DefaultManager) Resolve(ctx context.Context, input *disputedto.ResolveInput) (*disputedto.ResolutionOutcome, error) {
	action := input.Action.Action()
	if action == domain.ActionUnknown {
		return nil, fmt.Errorf("%w: unknown resolution action", domain.ErrInvalidPayload)
	}

	c, err := m.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("case %s: %w", c.ID, domain.ErrCaseClosed)
	}

	order, err := m.engine.Apply(ctx, lifecycle.ApplyInput{
		OrderID: 	c.OrderID,
		ActorID: 	input.OperatorID,
		Role: 		domain.RoleOperator,
		Action: 	action,
		Payload: lifecycle.Payload{
			CaseID: 	c.ID,
			Amount: 	input.Amount,
			AssigneeID: input.AssigneeID,
			Note: 		input.Note,
		},
	})
	if err != nil {
		return nil, err
	}

	resolved, err := m.cases.GetCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	outcome := &disputedto.ResolutionOutcome{
		Order: 	order,
		Case: 	resolved,
		Action: input.Action,
	}
	if resolved.ResolutionAmount != nil {
		outcome.RefundedAmount = *resolved.ResolutionAmount
	}
	return outcome, nil
}

// EscalateStale escalates open cases nobody has taken within sla.
// It returns how many cases were escalated.
func (m *DefaultManager) EscalateStale(ctx context.Context, sla time.Duration, limit int) (int, error) {
	stale, err := m.cases.FindStaleOpen(ctx, m.now().Add(-sla), limit)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, c := range stale {
		if err := ctx.Err(); err != nil {
			return escalated, err
		}
		_, err := m.engine.Apply(ctx, lifecycle.ApplyInput{
			OrderID: 	c.OrderID,
			ActorID: 	SystemOperatorID,
			Role: 		domain.RoleOperator,
			Action: 	domain.ActionEscalate,
			Payload: lifecycle.Payload{
				CaseID: 	c.ID,
				AssigneeID: c.AssignedOperatorID,
				Note: 		"review sla exceeded",
			},
		})
		if err != nil {
			slog.Warn("failed to escalate stale dispute", "case_id", c.ID, "order_id", c.OrderID, "error", err)
			continue
		}
		escalated++
	}
	if escalated > 0 {
		slog.Info("stale disputes escalated", "count", escalated)
	}
	return escalated, nil
}

// updateCase re-reads the case and reapplies mutate on version conflicts.
// A nil entry list from mutate means nothing changed.
func (m *DefaultManager) updateCase(ctx context.Context, caseID string, mutate func(*domain.DisputeCase) ([]domain.TimelineEntry, error)) (*domain.DisputeCase, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		c, err := m.cases.GetCase(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if !c.IsActive() {
			return nil, fmt.Errorf("case %s: %w", c.ID, domain.ErrCaseClosed)
		}

		expected := c.Version
		next := c.Clone()
		entries, err := mutate(next)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			return c, nil
		}
		next.UpdatedAt = m.now()

		updated, err := m.cases.UpdateCase(ctx, next, expected, entries...)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		slog.Warn("dispute case changed concurrently, retrying", "case_id", caseID, "attempt", attempt)
	}
	return nil, fmt.Errorf("case %s: %w: gave up after %d attempts", caseID, domain.ErrVersionConflict, m.maxAttempts)
}

func (m *DefaultManager) checkParty(ctx context.Context, orderID, actorID string, role domain.ActorRole) error {
	switch role {
	case domain.RoleOperator:
		return nil
	case domain.RoleBuyer, domain.RoleSeller:
	default:
		return fmt.Errorf("%w: %s cannot add evidence", domain.ErrUnauthorized, role)
	}

	order, err := m.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if (role == domain.RoleBuyer && order.BuyerID != actorID) || (role == domain.RoleSeller && order.SellerID != actorID) {
		return fmt.Errorf("%w: %s is not a party to order %s", domain.ErrUnauthorized, actorID, orderID)
	}
	return nil
}
