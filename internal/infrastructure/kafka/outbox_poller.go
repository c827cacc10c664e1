package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/metrics"
)

const eventTypeHeader = "event_type"

// OutboxPoller delivers committed lifecycle events to Kafka at least once.
type OutboxPoller struct {
	repo 		domain.OutboxRepository
	publisher 	domain.PublisherPort
	metrics 	*metrics.LifecycleMetrics
	topic 		string
	batchSize 	int
	interval 	time.Duration
}

func NewOutboxPoller(
	repo domain.OutboxRepository,
	publisher domain.PublisherPort,
	lifecycleMetrics *metrics.LifecycleMetrics,
	topic string,
	batchSize int,
	interval time.Duration,
	) *OutboxPoller {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxPoller{
		repo: 		repo,
		publisher: 	publisher,
		metrics: 	lifecycleMetrics,
		topic: 		topic,
		batchSize: 	batchSize,
		interval: 	interval,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				slog.Error("outbox publish failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// PublishPending sends one batch of unpublished events and returns how many were delivered.
// Events are sent one by one in commit order so a failure never reorders an order's events.
func (p *OutboxPoller) PublishPending(ctx context.Context) (int, error) {
	events, err := p.repo.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]string, 0, len(events))
	blocked := make(map[string]bool)
	for _, event := range events {
		if blocked[event.AggregateID] {
			continue
		}
		msg := domain.Message{
			Key: 		[]byte(event.AggregateID),
			Value: 		event.Payload,
			Headers: 	map[string]string{eventTypeHeader: event.EventType},
		}
		if err := p.publisher.Publish(ctx, p.topic, msg); err != nil {
			slog.Warn("failed to publish outbox event", "event_id", event.ID, "order_id", event.AggregateID, "error", err)
			blocked[event.AggregateID] = true
			if p.metrics != nil {
				p.metrics.RecordOutboxFailed()
			}
			if err := p.repo.MarkFailed(ctx, event.ID, err.Error()); err != nil {
				slog.Error("failed to record outbox failure", "event_id", event.ID, "error", err)
			}
			continue
		}
		published = append(published, event.ID)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := p.repo.MarkPublished(ctx, published...); err != nil {
		return 0, err
	}
	if p.metrics != nil {
		p.metrics.RecordOutboxPublished(len(published))
	}
	return len(published), nil
}
