// Package queue carries forecast events out of the service and forecast
// requests into it over NATS JetStream, Redis Streams, Kafka or an
// in-process channel.
package queue

import "context"

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes multiple messages and waits for all of them.
	// Returns the number of messages the broker accepted.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with a handler. A handler error
	// leaves the message unacknowledged so the broker can redeliver it.
	Subscribe(subject string, handler MessageHandler) error

	Unsubscribe(subject string) error

	Close() error
}

// MessageHandler handles incoming messages
type MessageHandler func(data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
