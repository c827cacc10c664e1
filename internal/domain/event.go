package domain

import (
	"context"
	"time"
)

const EventTypeOrderTransitioned = "order.transitioned"

// LifecycleEvent is emitted for every committed transition.
type LifecycleEvent struct {
	EventID 	string 		`json:"event_id"`
	OrderID 	string 		`json:"order_id"`
	FromStatus 	OrderStatus `json:"from_status"`
	ToStatus 	OrderStatus `json:"to_status"`
	Action 		Action 		`json:"action"`
	ActorID 	string 		`json:"actor_id"`
	ActorRole 	ActorRole 	`json:"actor_role"`
	Version 	int64 		`json:"version"`
	CaseID 		string 		`json:"case_id,omitempty"`
	OccurredAt 	time.Time 	`json:"occurred_at"`
}

// OutboxEvent is a queued event awaiting at-least-once delivery.
type OutboxEvent struct {
	ID 			string
	AggregateID string
	EventType 	string
	Payload 	[]byte
	Attempts 	int
	LastError 	string
	CreatedAt 	time.Time
	PublishedAt *time.Time
}

type OutboxRepository interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, ids ...string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
