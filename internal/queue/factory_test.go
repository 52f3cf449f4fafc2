package queue

import (
	"context"
	"testing"

	"github.com/soltixdb/depotcast/internal/config"
)

func TestNewQueue_Memory(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "MEMORY"})
	if err != nil {
		t.Fatalf("Failed to create memory queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("got %T, want *MemoryQueue", q)
	}
}

func TestNewQueue_DefaultsToNATS(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := NewQueue(config.QueueConfig{URL: url})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*NATSQueue); !ok {
		t.Errorf("got %T, want *NATSQueue", q)
	}
	if err := q.Publish(context.Background(), "depotcast.factory", []byte("x")); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}

func TestNewQueue_KafkaBrokersFromURL(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "kafka", URL: "k1:9092,k2:9092"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	kq, ok := q.(*KafkaQueue)
	if !ok {
		t.Fatalf("got %T, want *KafkaQueue", q)
	}
	if len(kq.config.Brokers) != 2 {
		t.Errorf("brokers = %v", kq.config.Brokers)
	}
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "unknown"}); err == nil {
		t.Fatal("Expected error for unsupported queue type")
	}
}
