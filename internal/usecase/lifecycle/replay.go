package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/transition"
)

var ErrReplayMismatch = errors.New("audit trail does not reproduce the order")

// Replay folds an audit trail starting from pending and returns the resulting status.
// Records are applied in sequence order; every record must continue from the running
// status along a table edge, with no gaps in the sequence.
func Replay(trail []domain.AuditRecord) (domain.OrderStatus, error) {
	records := append([]domain.AuditRecord(nil), trail...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})

	status := domain.StatusPending
	for i, r := range records {
		if want := int64(i) + 2; r.Seq != want {
			return domain.StatusUnknown, fmt.Errorf("%w: record %s has seq %d, want %d", ErrReplayMismatch, r.ID, r.Seq, want)
		}
		if r.FromStatus != status {
			return domain.StatusUnknown, fmt.Errorf("%w: record %d starts from %s, running status is %s", ErrReplayMismatch, r.Seq, r.FromStatus, status)
		}
		if !transition.IsEdge(r.FromStatus, r.ToStatus) {
			return domain.StatusUnknown, fmt.Errorf("%w: record %d moves %s -> %s", ErrReplayMismatch, r.Seq, r.FromStatus, r.ToStatus)
		}
		status = r.ToStatus
	}
	return status, nil
}

// ReplayStatus replays the stored trail and checks it against the stored order.
func (e *DefaultEngine) ReplayStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	order, err := e.load(ctx, orderID)
	if err != nil {
		return domain.StatusUnknown, err
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	trail, err := e.AuditRepo.GetTrail(sctx, orderID)
	if err != nil {
		return domain.StatusUnknown, err
	}

	replayed, err := Replay(trail)
	if err != nil {
		return domain.StatusUnknown, err
	}
	if replayed != order.Status {
		return replayed, fmt.Errorf("%w: replayed %s, stored %s", ErrReplayMismatch, replayed, order.Status)
	}
	if int64(len(trail))+1 != order.Version {
		return replayed, fmt.Errorf("%w: %d records for version %d", ErrReplayMismatch, len(trail), order.Version)
	}
	return replayed, nil
}
