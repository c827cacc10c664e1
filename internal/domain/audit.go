package domain

import (
	"context"
	"time"
)

// AuditRecord is the immutable log entry for one committed transition.
// Seq equals the order version produced by the transition.
type AuditRecord struct {
	ID 			string
	OrderID 	string
	Seq 		int64
	ActorID 	string
	ActorRole 	ActorRole
	Action 		Action
	FromStatus 	OrderStatus
	ToStatus 	OrderStatus
	Timestamp 	time.Time
	Metadata 	map[string]string
}

// AuditRepository is read-only: records are appended only as part of a Commit.
type AuditRepository interface {
	// GetTrail returns the order's records ordered by timestamp, then insertion.
	GetTrail(ctx context.Context, orderID string) ([]AuditRecord, error)
}
