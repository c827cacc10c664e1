package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/config"
	publisher "github.com/LavaJover/marketplace-order-service/internal/infrastructure/kafka"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/dispute"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
	"golang.org/x/sync/errgroup"
)

const staleBatchSize = 100

type BackgroundTasks struct {
	Engine 			lifecycle.Engine
	Disputes 		dispute.Manager
	Outbox 			*publisher.OutboxPoller
	Carrier 		*publisher.Consumer
	Checkout 		*publisher.Consumer

	reviewSLA 		time.Duration
	scanInterval 	time.Duration
}

// NewBackgroundTasks wires the Kafka side only when a subscriber and outbox poller are given.
func NewBackgroundTasks(
	engine lifecycle.Engine,
	disputes dispute.Manager,
	outbox *publisher.OutboxPoller,
	subscriber *publisher.DefaultKafkaSubscriber,
	kafkaCfg config.KafkaService,
	lifecycleCfg config.Lifecycle,
	) *BackgroundTasks {
	bt := &BackgroundTasks{
		Engine: 		engine,
		Disputes: 		disputes,
		Outbox: 		outbox,
		reviewSLA: 		lifecycleCfg.ReviewSLA,
		scanInterval: 	lifecycleCfg.StaleScanInterval,
	}
	if subscriber != nil {
		bt.Carrier = publisher.NewConsumer(subscriber, kafkaCfg.CarrierTopic, kafkaCfg.GroupID, CarrierDeliveryHandler(engine))
		bt.Checkout = publisher.NewConsumer(subscriber, kafkaCfg.CheckoutTopic, kafkaCfg.GroupID, CheckoutCompletedHandler(engine))
	}
	return bt
}

// Run starts every configured task and blocks until ctx is done.
func (bt *BackgroundTasks) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if bt.Outbox != nil {
		g.Go(func() error {
			bt.Outbox.Run(ctx)
			return nil
		})
	}
	for _, c := range []*publisher.Consumer{bt.Carrier, bt.Checkout} {
		if c == nil {
			continue
		}
		g.Go(func() error {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	if bt.Disputes != nil && bt.scanInterval > 0 {
		g.Go(func() error {
			bt.startStaleEscalation(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (bt *BackgroundTasks) startStaleEscalation(ctx context.Context) {
	ticker := time.NewTicker(bt.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.escalateStale(ctx)
		}
	}
}

func (bt *BackgroundTasks) escalateStale(ctx context.Context) int {
	n, err := bt.Disputes.EscalateStale(ctx, bt.reviewSLA, staleBatchSize)
	if err != nil {
		slog.Error("stale dispute escalation failed", "escalated", n, "error", err)
		return n
	}
	if n > 0 {
		slog.Info("stale disputes escalated", "count", n)
	}
	return n
}
