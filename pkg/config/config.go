package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the gateway.
// It contains the HTTP server settings, the Databricks upstream connection,
// the exposed model list, telemetry, and the request audit trail.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains the Databricks serving-endpoint connection settings.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Models is the allow-list of model identifiers exposed through
	// /v1/models and accepted by the completion endpoints. It accepts
	// either a YAML sequence or a single comma-separated string.
	Models ModelList `yaml:"models"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Audit contains configuration for the request audit trail.
	Audit AuditConfig `yaml:"audit"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Streaming responses are bounded by this as well.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size. Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// RequestTimeout is the per-request deadline applied by the timeout
	// middleware. It cancels pending upstream calls and stream relays.
	// Default: 2m
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted. Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers.
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the client.
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds. Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed.
	AllowCredentials bool `yaml:"allow_credentials"`
}

// UpstreamConfig contains the Databricks serving-endpoint connection
// configuration. The token is treated as an opaque credential and is never
// logged.
type UpstreamConfig struct {
	// BaseURL is the serving-endpoints base URL, without a trailing slash.
	// Example: "https://my-workspace.cloud.databricks.com/serving-endpoints"
	BaseURL string `yaml:"base_url"`

	// Token is the Databricks bearer token. Typically supplied through the
	// DATABRICKS_TOKEN environment variable rather than the config file.
	Token string `yaml:"token"`

	// Timeout is the maximum duration for a single upstream request.
	// Default: 2m
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retry attempts for transient upstream
	// failures (5xx, network errors). Auth and rate-limit responses are
	// never retried. Default: 0
	MaxRetries int `yaml:"max_retries"`

	// MaxIdleConns is the connection pool size. Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host idle connection limit. Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections stay pooled. Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text". Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records. Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix. Default: "bricksgw"
	Namespace string `yaml:"namespace"`
}

// AuditConfig contains configuration for the request audit trail.
// Audit records hold request metadata only, never message content.
type AuditConfig struct {
	// Enabled controls whether requests are recorded. Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path when Backend is "sqlite".
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// RetentionDays is how long records are kept before pruning.
	// Zero disables age-based pruning. Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records; the oldest are pruned
	// first. Zero disables the cap. Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler. Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// ModelList is the ordered allow-list of exposed model identifiers.
// In YAML it decodes from either a sequence of strings or a single
// comma-separated string, matching the AVAILABLE_MODELS environment
// variable format.
type ModelList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *ModelList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*m = SplitModelList(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*m = list
		return nil
	default:
		return fmt.Errorf("models must be a string or a list of strings")
	}
}

// SplitModelList splits a comma-separated model list, trimming whitespace
// and dropping empty entries. Order is preserved.
func SplitModelList(s string) []string {
	var models []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			models = append(models, id)
		}
	}
	return models
}
