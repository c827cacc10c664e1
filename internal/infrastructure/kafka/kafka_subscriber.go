package publisher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	brokers []string
}

func NewDefaultKafkaSubscriber(brokers []string) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers}
}

// Subscribe streams messages of topic until ctx is done or the reader fails.
// Offsets are committed only through Message.Ack. The channel is closed when the reader stops.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: 	k.brokers,
		Topic: 		topic,
		GroupID: 	groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("kafka reader stopped", "topic", topic, "group_id", groupID, "error", err)
				}
				return
			}
			headers := make(map[string]string, len(m.Headers))
			for _, h := range m.Headers {
				headers[h.Key] = string(h.Value)
			}
			fetched := m
			msg := domain.Message{
				Key: 		m.Key,
				Value: 		m.Value,
				Headers: 	headers,
				Ack: func(ctx context.Context) error {
					return reader.CommitMessages(ctx, fetched)
				},
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
