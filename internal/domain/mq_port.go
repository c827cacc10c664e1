package domain

import "context"

type Message struct {
	Key 	[]byte
	Value 	[]byte
	Headers map[string]string
	// Ack commits the message offset. Nil when the source does not track offsets.
	Ack func(ctx context.Context) error
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}
