package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path, applies
// default values, applies environment variable overrides, and validates the
// result. If the file does not exist, loading proceeds from defaults and
// environment alone, so the gateway can run fully env-configured.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Env-only configuration.
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Gateway-specific variables use the BRICKSGW_SECTION_FIELD
// convention; the Databricks-native names (DATABRICKS_TOKEN,
// DATABRICKS_BASE_URL, AVAILABLE_MODELS, PORT) are honored as well so
// existing deployments carry over unchanged. Environment variables always
// take precedence over file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server
	if val := os.Getenv("BRICKSGW_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if _, err := strconv.Atoi(val); err == nil {
			host, _, splitErr := net.SplitHostPort(cfg.Server.ListenAddress)
			if splitErr != nil || host == "" {
				host = "0.0.0.0"
			}
			cfg.Server.ListenAddress = net.JoinHostPort(host, val)
		}
	}
	setDuration(&cfg.Server.ReadTimeout, "BRICKSGW_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "BRICKSGW_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.IdleTimeout, "BRICKSGW_SERVER_IDLE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "BRICKSGW_SERVER_SHUTDOWN_TIMEOUT")
	setDuration(&cfg.Server.RequestTimeout, "BRICKSGW_SERVER_REQUEST_TIMEOUT")

	// Upstream
	if val := os.Getenv("BRICKSGW_UPSTREAM_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("DATABRICKS_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("BRICKSGW_UPSTREAM_TOKEN"); val != "" {
		cfg.Upstream.Token = val
	}
	if val := os.Getenv("DATABRICKS_TOKEN"); val != "" {
		cfg.Upstream.Token = val
	}
	setDuration(&cfg.Upstream.Timeout, "BRICKSGW_UPSTREAM_TIMEOUT")
	if val := os.Getenv("BRICKSGW_UPSTREAM_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Upstream.MaxRetries = i
		}
	}

	// Models
	if val := os.Getenv("BRICKSGW_MODELS"); val != "" {
		cfg.Models = SplitModelList(val)
	}
	if val := os.Getenv("AVAILABLE_MODELS"); val != "" {
		cfg.Models = SplitModelList(val)
	}

	// Telemetry
	if val := os.Getenv("BRICKSGW_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("BRICKSGW_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("BRICKSGW_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	// Audit
	if val := os.Getenv("BRICKSGW_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("BRICKSGW_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("BRICKSGW_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
}

// setDuration parses a duration environment variable into dst if set and
// valid; invalid values are ignored in favor of the existing setting.
func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
