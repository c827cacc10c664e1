package lifecycle

import (
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
)

func (e *DefaultEngine) recordApply(action domain.Action, err error, start time.Time) {
	if e.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = domain.ErrorKind(err)
	}
	e.Metrics.RecordApplyDuration(action.String(), outcome, start)
}

func (e *DefaultEngine) recordTransition(action domain.Action, from, to domain.OrderStatus) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordTransition(action.String(), from.String(), to.String())
}

func (e *DefaultEngine) recordRejection(action domain.Action, reason error) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordRejection(action.String(), domain.ErrorKind(reason))
}

func (e *DefaultEngine) recordConflict(action domain.Action) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordVersionConflict(action.String())
}

func (e *DefaultEngine) recordRetriesExhausted(action domain.Action) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordRetriesExhausted(action.String())
}

func (e *DefaultEngine) recordDisputeOpened() {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordDisputeOpened()
}

// recordDisputeResolved counts the resolution and the refunded amount, if any
func (e *DefaultEngine) recordDisputeResolved(action domain.Action, currency string, refunded int64) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordDisputeResolved(domain.ResolutionFromAction(action).String(), currency, refunded)
}

func (e *DefaultEngine) recordOrderCreated(order *domain.Order) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.RecordOrderCreated(order.Currency)
}
