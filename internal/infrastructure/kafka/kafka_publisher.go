package publisher

import (
	"context"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(brokers []string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr: 					kafka.TCP(brokers...),
			Balancer: 				&kafka.Hash{},
			RequiredAcks: 			kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes msgs to topic. Messages with the same key keep their order.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		headers := make([]kafka.Header, 0, len(m.Headers))
		for key, value := range m.Headers {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
		}
		km = append(km, kafka.Message{
			Topic: 		topic,
			Key: 		m.Key,
			Value: 		m.Value,
			Headers: 	headers,
			Time: 		now,
		})
	}

	return k.writer.WriteMessages(ctx, km...)
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
