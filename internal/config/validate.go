package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError describes a configuration error tied to a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning describes a suspicious but non-fatal configuration value.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidationResult collects validation errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined error message, or an empty string.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) addError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

func (r *ValidationResult) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message})
}

// Validate checks the full configuration and returns all problems found.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	c.Database.validate(result)
	c.Server.validate(result)
	c.Broker.validate(result)
	c.Observability.validate(result)
	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if d.ConnectionString == "" {
		if d.Host == "" {
			result.addError("database.host", "host is required when dsn is not set")
		}
		if d.Port <= 0 || d.Port > 65535 {
			result.addError("database.port", fmt.Sprintf("port %d is out of range", d.Port))
		}
		if d.User == "" {
			result.addError("database.user", "user is required when dsn is not set")
		}
		if d.Database == "" {
			result.addError("database.database", "database name is required when dsn is not set")
		}
	}

	if d.Pool.MaxOpen < 0 {
		result.addError("database.pool.max_open", "must not be negative")
	}
	if d.Pool.MaxIdle < 0 {
		result.addError("database.pool.max_idle", "must not be negative")
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.addWarning("database.pool.max_idle", "max_idle exceeds max_open; extra idle connections are discarded")
	}
	if d.ConnectionTimeout <= 0 {
		result.addError("database.connection_timeout", "must be positive")
	}
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port <= 0 || s.Port > 65535 {
		result.addError("server.port", fmt.Sprintf("port %d is out of range", s.Port))
	}
	if s.PageSize <= 0 {
		result.addError("server.page_size", "must be positive")
	}
	if s.PageSize > 1000 {
		result.addWarning("server.page_size", "very large page sizes defeat pagination")
	}

	if s.RateLimitEnabled {
		if s.RateLimitRPS <= 0 {
			result.addError("server.rate_limit_rps", "must be positive when rate limiting is enabled")
		}
		if s.RateLimitBurst <= 0 {
			result.addError("server.rate_limit_burst", "must be positive when rate limiting is enabled")
		}
	}

	if s.CORSEnabled && len(s.CORSAllowedOrigins) == 0 {
		result.addWarning("server.cors_allowed_origins", "CORS is enabled but no origins are allowed")
	}

	switch s.TLSMode {
	case "", "off", "auto":
	case "file":
		if s.TLSCertFile == "" {
			result.addError("server.tls_cert_file", "required for tls_mode=file")
		}
		if s.TLSKeyFile == "" {
			result.addError("server.tls_key_file", "required for tls_mode=file")
		}
	default:
		result.addError("server.tls_mode", fmt.Sprintf("unknown mode %q (expected off, auto, or file)", s.TLSMode))
	}

	if s.ShutdownTimeout <= 0 {
		result.addError("server.shutdown_timeout", "must be positive")
	}
}

func (b *BrokerConfig) validate(result *ValidationResult) {
	if b.URL == "" {
		return
	}
	parsed, err := url.Parse(b.URL)
	if err != nil {
		result.addError("broker.url", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if parsed.Scheme != "redis" && parsed.Scheme != "rediss" {
		result.addError("broker.url", fmt.Sprintf("unsupported scheme %q (expected redis or rediss)", parsed.Scheme))
	}
	if b.QueueKey == "" {
		result.addError("broker.queue_key", "must not be empty when a broker is configured")
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	if o.ServiceName == "" {
		result.addError("observability.service_name", "must not be empty")
	}
	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.addError("observability.trace_sample_ratio", "must be between 0 and 1")
	}

	switch o.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		result.addError("observability.logging.level", fmt.Sprintf("unknown level %q", o.Logging.Level))
	}
	switch o.Logging.Format {
	case "json", "text":
	default:
		result.addError("observability.logging.format", fmt.Sprintf("unknown format %q", o.Logging.Format))
	}

	if o.TracingEnabled && o.GetTracesConfig().Endpoint == "" {
		result.addWarning("observability.otlp.endpoint", "tracing is enabled but no OTLP endpoint is configured")
	}
	if o.Logging.ExportsEnabled && o.GetLogsConfig().Endpoint == "" {
		result.addWarning("observability.otlp.endpoint", "log export is enabled but no OTLP endpoint is configured")
	}
}
