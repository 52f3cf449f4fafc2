package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DEPOTCAST_SERVER_HTTP_PORT
const EnvPrefix = "DEPOTCAST"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/depotcast")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	v.SetDefault("forecast.default_order", d.Forecast.DefaultOrder)
	v.SetDefault("forecast.default_q", d.Forecast.DefaultQ)
	v.SetDefault("forecast.default_horizon", d.Forecast.DefaultHorizon)
	v.SetDefault("forecast.max_horizon", d.Forecast.MaxHorizon)
	v.SetDefault("forecast.arima_backend", d.Forecast.ARIMABackend)
	v.SetDefault("forecast.history_days", d.Forecast.HistoryDays)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.timezone", d.Storage.Timezone)

	v.SetDefault("etcd.enabled", d.Etcd.Enabled)
	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout)
	v.SetDefault("etcd.lease_ttl", d.Etcd.LeaseTTL)

	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.event_subject", d.Queue.EventSubject)
	v.SetDefault("queue.request_subject", d.Queue.RequestSubject)
	v.SetDefault("queue.compress", d.Queue.Compress)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.spec", d.Scheduler.Spec)
	v.SetDefault("scheduler.timeout", d.Scheduler.Timeout)
	v.SetDefault("scheduler.refresh_on_import", d.Scheduler.RefreshOnImport)
	v.SetDefault("scheduler.import_delay", d.Scheduler.ImportDelay)
	v.SetDefault("scheduler.workers", d.Scheduler.Workers)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     8080,
			GRPCPort:     8081,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    16 * 1024 * 1024,
		},
		Forecast: ForecastConfig{
			DefaultOrder:   1,
			DefaultQ:       1,
			DefaultHorizon: 7,
			MaxHorizon:     365,
		},
		Storage: StorageConfig{
			Type:     "sqlite",
			Path:     "./data/depotcast.db",
			Timezone: "UTC",
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
			LeaseTTL:    10,
		},
		Queue: QueueConfig{
			Type:           "nats",
			URL:            "nats://localhost:4222",
			EventSubject:   "depotcast.forecast.completed",
			RequestSubject: "depotcast.forecast.requests",
			Compress:       true,
			RedisStream:    "depotcast",
			RedisGroup:     "depotcast-group",
			KafkaGroupID:   "depotcast",
		},
		Scheduler: SchedulerConfig{
			Spec:        "0 15 2 * * *",
			Timeout:     10 * time.Minute,
			ImportDelay: 5 * time.Second,
			Workers:     4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
	}
}
