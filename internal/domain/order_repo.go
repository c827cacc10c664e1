package domain

import "context"

// Commit is everything persisted atomically for one transition.
type Commit struct {
	OrderID 		string
	ExpectedVersion int64
	Next 			*Order
	Audit 			AuditRecord
	Event 			LifecycleEvent
	Case 			*CaseChange
	Review 			*Review
}

type OrderRepository interface {
	Get(ctx context.Context, orderID string) (*Order, error)
	// Create fails with ErrDuplicateOrder if the id exists.
	Create(ctx context.Context, order *Order) (*Order, error)
	// CompareAndSwap stores next if the stored version equals expectedVersion,
	// otherwise it fails with ErrVersionConflict. The stored version becomes expectedVersion+1.
	CompareAndSwap(ctx context.Context, orderID string, expectedVersion int64, next *Order) (*Order, error)
	// Commit performs CompareAndSwap together with the audit, outbox, case and review writes.
	Commit(ctx context.Context, c *Commit) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
}
