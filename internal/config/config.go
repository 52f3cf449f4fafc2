package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP API port
	GRPCPort     int           `mapstructure:"grpc_port"` // gRPC health port, 0 disables it
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes (CSV uploads)
}

// ForecastConfig holds engine defaults applied when a request leaves a
// parameter unset.
type ForecastConfig struct {
	DefaultOrder   int  `mapstructure:"default_order"`   // AR order p
	DefaultQ       int  `mapstructure:"default_q"`       // MA order q for the ARIMA backend
	DefaultHorizon int  `mapstructure:"default_horizon"` // days
	MaxHorizon     int  `mapstructure:"max_horizon"`     // upper bound accepted from clients
	ARIMABackend   bool `mapstructure:"arima_backend"`   // enable the full ARIMA path
	HistoryDays    int  `mapstructure:"history_days"`    // days of history fed to the engine, 0 = all
}

// StorageConfig represents storage configuration
type StorageConfig struct {
	Type     string `mapstructure:"type"`     // sqlite (default) or memory
	Path     string `mapstructure:"path"`     // sqlite database file
	Timezone string `mapstructure:"timezone"` // Timezone that shipment dates are interpreted in (e.g., "Europe/Berlin", "+09:00", "UTC")
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Enabled     bool          `mapstructure:"enabled"` // false keeps the warehouse registry in memory
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	LeaseTTL    int           `mapstructure:"lease_ttl"` // seconds an instance registration outlives its last heartbeat
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Password string `mapstructure:"password"` // Optional authentication

	EventSubject   string `mapstructure:"event_subject"`   // forecast completion events
	RequestSubject string `mapstructure:"request_subject"` // forecast requests consumed by the service
	Compress       bool   `mapstructure:"compress"`        // snappy-compress event payloads

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`
	RedisStream   string `mapstructure:"redis_stream"`
	RedisGroup    string `mapstructure:"redis_group"`
	RedisConsumer string `mapstructure:"redis_consumer"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`
}

// SchedulerConfig controls the periodic forecast refresh
type SchedulerConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Spec    string        `mapstructure:"spec"`    // cron expression, seconds field optional
	Timeout time.Duration `mapstructure:"timeout"` // per-run budget

	RefreshOnImport bool          `mapstructure:"refresh_on_import"` // re-forecast a warehouse after its shipments change
	ImportDelay     time.Duration `mapstructure:"import_delay"`      // quiet period before an import-triggered refresh
	Workers         int           `mapstructure:"workers"`           // concurrent import-triggered refreshes
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if c.Etcd.Enabled {
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	}
	if c.Queue.Enabled {
		if err := c.Queue.Validate(); err != nil {
			return fmt.Errorf("queue config: %w", err)
		}
	}
	if c.Scheduler.Enabled || c.Scheduler.RefreshOnImport {
		if err := c.Scheduler.Validate(); err != nil {
			return fmt.Errorf("scheduler config: %w", err)
		}
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth config: api_keys is required when auth is enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("http_port and grpc_port cannot be the same")
	}
	return nil
}

// Validate validates forecast defaults
func (c *ForecastConfig) Validate() error {
	if c.DefaultOrder < 1 {
		return fmt.Errorf("default_order must be at least 1")
	}
	if c.DefaultQ < 0 {
		return fmt.Errorf("default_q must not be negative")
	}
	if c.DefaultHorizon < 1 {
		return fmt.Errorf("default_horizon must be at least 1")
	}
	if c.MaxHorizon < c.DefaultHorizon {
		return fmt.Errorf("max_horizon (%d) must not be below default_horizon (%d)", c.MaxHorizon, c.DefaultHorizon)
	}
	if c.HistoryDays < 0 {
		return fmt.Errorf("history_days must not be negative")
	}
	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Type {
	case "", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.type must be sqlite or memory")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}
	if c.LeaseTTL < 0 {
		return fmt.Errorf("etcd.lease_ttl must not be negative")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}
	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("queue.kafka_brokers is required for kafka")
	}
	if c.EventSubject == "" {
		return fmt.Errorf("queue.event_subject is required")
	}
	return nil
}

// Validate validates the scheduler configuration
func (c *SchedulerConfig) Validate() error {
	if _, err := ParseSchedule(c.Spec); err != nil {
		return fmt.Errorf("invalid scheduler.spec %q: %w", c.Spec, err)
	}
	if c.RefreshOnImport && c.Workers < 1 {
		return fmt.Errorf("scheduler.workers must be at least 1")
	}
	if c.ImportDelay < 0 {
		return fmt.Errorf("scheduler.import_delay must not be negative")
	}
	return nil
}

// ParseSchedule parses a cron expression with an optional seconds field
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}
