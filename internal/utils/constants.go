package utils

import "time"

// Version is reported by the health endpoint and the CLI
const Version = "1.0.0"

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// ImportTimeout bounds a CSV shipment import
	ImportTimeout = 2 * time.Minute

	// HealthCheckTimeout bounds each dependency probe of the health endpoint
	HealthCheckTimeout = 2 * time.Second
)

// Queue consumer settings
const (
	// MessageTimeout bounds the handling of one queued forecast request
	MessageTimeout = time.Minute

	// PublishTimeout bounds publishing a forecast event
	PublishTimeout = 5 * time.Second
)

// gRPC settings
const (
	// GRPCShutdownTimeout is how long GracefulStop may take before Stop is forced
	GRPCShutdownTimeout = 10 * time.Second
)

// List limits
const (
	// DefaultRunListLimit is the number of forecast runs returned when no limit is given
	DefaultRunListLimit = 20

	// MaxRunListLimit caps the limit query parameter
	MaxRunListLimit = 500
)

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
