package queue

import (
	"context"
	"os"
	"testing"
	"time"
)

// isKafkaAvailable is opt-in: set KAFKA_TEST=1 with brokers in KAFKA_BROKERS
func isKafkaAvailable() bool {
	return os.Getenv("KAFKA_TEST") == "1"
}

func getKafkaBrokers() []string {
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		return []string{brokers}
	}
	return []string{"localhost:9092"}
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.config.GroupID != "depotcast-group" {
		t.Errorf("GroupID = %q", q.config.GroupID)
	}
	if q.config.BatchSize != 100 || q.config.MaxRetries != 3 || q.config.CommitRetries != 3 {
		t.Errorf("unexpected defaults: %+v", q.config)
	}
	if q.config.BatchTimeout != 10*time.Millisecond {
		t.Errorf("BatchTimeout = %v", q.config.BatchTimeout)
	}
}

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	if _, err := NewKafkaQueue(KafkaConfig{}); err == nil {
		t.Fatal("Expected error when no brokers configured")
	}
}

func TestKafkaQueue_WriterReused(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.writer("events") != q.writer("events") {
		t.Error("expected the same writer for a topic")
	}
	if q.writer("events") == q.writer("other") {
		t.Error("expected distinct writers per topic")
	}
}

func TestKafkaQueue_UnsubscribeUnknown(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if err := q.Unsubscribe("missing"); err == nil {
		t.Error("expected error for unknown topic")
	}
}

func TestKafkaQueue_PublishAndSubscribe(t *testing.T) {
	if !isKafkaAvailable() {
		t.Skip("Kafka not available, set KAFKA_TEST=1 to run")
	}

	q, err := NewKafkaQueue(KafkaConfig{Brokers: getKafkaBrokers(), GroupID: "depotcast-test"})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	topic := "depotcast-test-" + time.Now().Format("150405")
	got := make(chan string, 1)
	if err := q.Subscribe(topic, func(data []byte) error {
		got <- string(data)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := q.Publish(ctx, topic, []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-got:
		if msg != "hello" {
			t.Errorf("got %q", msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
