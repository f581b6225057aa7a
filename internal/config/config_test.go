package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshalConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.PageSize)
	assert.False(t, cfg.Server.GraphiQLEnabled)
	assert.Equal(t, "off", cfg.Server.TLSMode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.Pool.MaxOpen)
	assert.Equal(t, 5*time.Minute, cfg.Database.Pool.MaxLifetime)

	assert.Empty(t, cfg.Broker.URL)
	assert.Equal(t, "inventory:tasks", cfg.Broker.QueueKey)

	assert.Equal(t, "inventory-graphql", cfg.Observability.ServiceName)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)

	result := cfg.Validate()
	assert.False(t, result.HasErrors(), "default config should validate: %s", result.Error())
}

func TestDSNFromDiscreteFields(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		User:     "inventory",
		Password: "secret",
		Database: "inventory",
	}
	assert.Equal(t,
		"inventory:secret@tcp(db.internal:3306)/inventory?parseTime=true&loc=UTC",
		d.DSN())
}

func TestDSNFromConnectionString(t *testing.T) {
	t.Run("appends parseTime and loc", func(t *testing.T) {
		d := DatabaseConfig{ConnectionString: "user:pass@tcp(host:3306)/db"}
		assert.Equal(t, "user:pass@tcp(host:3306)/db?parseTime=true&loc=UTC", d.DSN())
	})

	t.Run("preserves existing params", func(t *testing.T) {
		d := DatabaseConfig{ConnectionString: "user:pass@tcp(host:3306)/db?parseTime=true&loc=UTC&tls=skip-verify"}
		assert.Equal(t, "user:pass@tcp(host:3306)/db?parseTime=true&loc=UTC&tls=skip-verify", d.DSN())
	})
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.Port = 0
	cfg.Server.PageSize = -1
	cfg.Server.TLSMode = "files"
	cfg.Broker.URL = "amqp://broker:5672"
	cfg.Observability.Logging.Level = "loud"

	result := cfg.Validate()
	require.True(t, result.HasErrors())

	fields := make(map[string]bool)
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["server.port"])
	assert.True(t, fields["server.page_size"])
	assert.True(t, fields["server.tls_mode"])
	assert.True(t, fields["broker.url"])
	assert.True(t, fields["observability.logging.level"])
}

func TestValidateBroker(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Broker.URL = "redis://localhost:6379/0"
	assert.False(t, cfg.Validate().HasErrors())

	cfg.Broker.QueueKey = ""
	assert.True(t, cfg.Validate().HasErrors())
}

func TestValidateTLSFileMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.TLSMode = "file"

	result := cfg.Validate()
	require.True(t, result.HasErrors())

	cfg.Server.TLSCertFile = "server.crt"
	cfg.Server.TLSKeyFile = "server.key"
	assert.False(t, cfg.Validate().HasErrors())
}

func TestValidateRateLimit(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.RateLimitEnabled = true

	result := cfg.Validate()
	require.True(t, result.HasErrors())

	cfg.Server.RateLimitRPS = 50
	cfg.Server.RateLimitBurst = 100
	assert.False(t, cfg.Validate().HasErrors())
}

func TestOTLPConfigMerge(t *testing.T) {
	o := ObservabilityConfig{
		OTLP: OTLPConfig{
			Endpoint: "collector:4318",
			Headers:  map[string]string{"x-team": "inventory"},
			Timeout:  10 * time.Second,
		},
		Traces: &OTLPConfig{
			Endpoint: "traces:4318",
			Headers:  map[string]string{"x-signal": "traces"},
		},
	}

	traces := o.GetTracesConfig()
	assert.Equal(t, "traces:4318", traces.Endpoint)
	assert.Equal(t, "inventory", traces.Headers["x-team"])
	assert.Equal(t, "traces", traces.Headers["x-signal"])
	assert.Equal(t, 10*time.Second, traces.Timeout)

	logs := o.GetLogsConfig()
	assert.Equal(t, "collector:4318", logs.Endpoint)
}
