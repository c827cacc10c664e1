package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/cenkalti/backoff/v5"
)

const (
	defaultRetryInitial 	= 200 * time.Millisecond
	defaultRetryMax 		= 10 * time.Second
)

// Handler processes one message. Domain rejections are logged and the message is acknowledged;
// any other error, as well as ErrUnknownOutcome and ErrVersionConflict, is retried.
type Handler func(ctx context.Context, msg domain.Message) error

type Consumer struct {
	subscriber 		domain.SubscriberPort
	topic 			string
	groupID 		string
	handler 		Handler
	retryInitial 	time.Duration
	retryMax 		time.Duration
}

func NewConsumer(subscriber domain.SubscriberPort, topic, groupID string, handler Handler) *Consumer {
	return &Consumer{
		subscriber: 	subscriber,
		topic: 			topic,
		groupID: 		groupID,
		handler: 		handler,
		retryInitial: 	defaultRetryInitial,
		retryMax: 		defaultRetryMax,
	}
}

// WithRetryBackoff sets the bounds of the exponential delay between handler attempts.
func (c *Consumer) WithRetryBackoff(initial, maxDelay time.Duration) *Consumer {
	c.retryInitial = initial
	c.retryMax = maxDelay
	return c
}

// Run blocks until ctx is done or the subscription ends.
// A message is acknowledged only after it was handled or rejected by the domain,
// so an interrupted run leaves it to be redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		return err
	}
	slog.Info("kafka consumer started", "topic", c.topic, "group_id", c.groupID)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			if err := c.process(ctx, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg domain.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMax

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.handler(ctx, msg)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("retrying message", "topic", c.topic, "key", string(msg.Key), "in", next, "error", err)
		}),
	)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		slog.Error("message rejected", "topic", c.topic, "key", string(msg.Key), "kind", domain.ErrorKind(err), "error", err)
	}

	if msg.Ack == nil {
		return nil
	}
	if err := msg.Ack(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("failed to commit message", "topic", c.topic, "key", string(msg.Key), "error", err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrUnknownOutcome) || errors.Is(err, domain.ErrVersionConflict) {
		return true
	}
	return !domain.IsKind(err)
}
