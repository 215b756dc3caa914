package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Gateway   GatewayConfig
	Tracing   TracingConfig
	Broker    BrokerConfig
	PubSub    PubSubConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// GatewayConfig holds gateway configuration.
type GatewayConfig struct {
	// ConfigPath points at a declarative services/routes/plugins file
	// (.yaml, .toml, or .json). Empty means built-in defaults only.
	ConfigPath string        `envconfig:"GATEWAY_CONFIG" default:""`
	LatencyMin time.Duration `envconfig:"GATEWAY_LATENCY_MIN" default:"2ms"`
	LatencyMax time.Duration `envconfig:"GATEWAY_LATENCY_MAX" default:"20ms"`
	// UpstreamRPS caps forwarded requests per second; zero means no cap.
	UpstreamRPS float64 `envconfig:"GATEWAY_UPSTREAM_RPS" default:"0"`
}

// TracingConfig holds span pipeline configuration.
type TracingConfig struct {
	ServiceName string `envconfig:"TRACE_SERVICE" default:"coinflow-gateway"`
	// CollectorURL switches export from structured logs to an HTTP
	// collector when set.
	CollectorURL string `envconfig:"TRACE_COLLECTOR_URL" default:""`
}

// BrokerConfig holds queue router configuration.
type BrokerConfig struct {
	ProcessingDelayMin time.Duration `envconfig:"BROKER_DELAY_MIN" default:"10ms"`
	ProcessingDelayMax time.Duration `envconfig:"BROKER_DELAY_MAX" default:"50ms"`
}

// PubSubConfig holds pub/sub client configuration.
type PubSubConfig struct {
	ConnectDelay     time.Duration `envconfig:"PUBSUB_CONNECT_DELAY" default:"100ms"`
	DeliveryDelayMin time.Duration `envconfig:"PUBSUB_DELIVERY_MIN" default:"5ms"`
	DeliveryDelayMax time.Duration `envconfig:"PUBSUB_DELIVERY_MAX" default:"30ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Gateway: GatewayConfig{
			LatencyMin: 2 * time.Millisecond,
			LatencyMax: 20 * time.Millisecond,
		},
		Tracing: TracingConfig{
			ServiceName: "coinflow-gateway",
		},
		Broker: BrokerConfig{
			ProcessingDelayMin: 10 * time.Millisecond,
			ProcessingDelayMax: 50 * time.Millisecond,
		},
		PubSub: PubSubConfig{
			ConnectDelay:     100 * time.Millisecond,
			DeliveryDelayMin: 5 * time.Millisecond,
			DeliveryDelayMax: 30 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
