// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types, applies defaults for the
// optional blocks and validates the result so the service fails fast on
// bad or missing configuration.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process environment before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// decoderConfig extends koanf's default decoding so comma separated env
// values ("a,b") fill []string fields.
func decoderConfig() *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
	}
}

// EnvPrefix is stripped from every environment variable read by LoadConfig.
//
// Nesting is expressed with a double underscore:
//
//	USERS_API_SERVER__PORT             -> server.port
//	USERS_API_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns
//	USERS_API_RATE_LIMIT__MAX_REQUESTS -> rate_limit.max_requests
const EnvPrefix = "USERS_API_"

const serviceName = "users-api"

// Database drivers understood by the database package.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer so code that builds a Config by hand (tests,
// tools) can leave it out; LoadConfig always fills it.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development production test"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Host               string   `koanf:"host"`
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,gt=0"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,gt=0"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,gt=0"`
	ShutdownTimeout    int      `koanf:"shutdown_timeout" validate:"required,gt=0"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// Addr is the listen address handed to http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// DatabaseConfig contains connection parameters and pool tuning.
//
// For the sqlite driver only Name is used, as the database file path
// (":memory:" works too).
type DatabaseConfig struct {
	Driver          string   `koanf:"driver" validate:"required,oneof=postgres mysql sqlite"`
	Host            string   `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port            int      `koanf:"port" validate:"required_unless=Driver sqlite"`
	User            string   `koanf:"user" validate:"required_unless=Driver sqlite"`
	Password        string   `koanf:"password"`
	Name            string   `koanf:"name" validate:"required"`
	SSLMode         string   `koanf:"ssl_mode" validate:"required_if=Driver postgres"`
	MaxOpenConns    int      `koanf:"max_open_conns" validate:"required,gt=0"`
	MaxIdleConns    int      `koanf:"max_idle_conns" validate:"required,gt=0"`
	ConnMaxLifetime int      `koanf:"conn_max_lifetime" validate:"required,gt=0"`
	ConnMaxIdleTime int      `koanf:"conn_max_idle_time" validate:"required,gt=0"`
	ReplicaHosts    []string `koanf:"replica_hosts"`
}

// RedisConfig contains Redis connection details. An empty Address disables
// every Redis-backed feature (shared rate limiting, background jobs).
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// RateLimitConfig bounds the number of requests a single client IP may
// issue within Window.
type RateLimitConfig struct {
	MaxRequests int           `koanf:"max_requests" validate:"required,gt=0"`
	Window      time.Duration `koanf:"window" validate:"required,min=1ms"`
}

// IntegrationConfig stores third-party credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// EmailEnabled reports whether outgoing email is configured.
func (i IntegrationConfig) EmailEnabled() bool {
	return i.ResendAPIKey != ""
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}

func defaults() map[string]any {
	obs := DefaultObservabilityConfig()

	return map[string]any{
		"server.host":                 "",
		"server.port":                 "8080",
		"server.read_timeout":         30,
		"server.write_timeout":        30,
		"server.idle_timeout":         60,
		"server.shutdown_timeout":     10,
		"server.cors_allowed_origins": []string{"*"},

		"database.driver":             DriverPostgres,
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     25,
		"database.conn_max_lifetime":  300,
		"database.conn_max_idle_time": 300,

		"rate_limit.max_requests": 1000,
		"rate_limit.window":       time.Second,

		"integration.email_from": "Users API <onboarding@resend.dev>",

		"observability.logging.level":                         obs.Logging.Level,
		"observability.logging.format":                        obs.Logging.Format,
		"observability.logging.slow_query_threshold":          obs.Logging.SlowQueryThreshold,
		"observability.new_relic.app_log_forwarding_enabled":  obs.NewRelic.AppLogForwardingEnabled,
		"observability.new_relic.distributed_tracing_enabled": obs.NewRelic.DistributedTracingEnabled,
		"observability.new_relic.debug_logging":               obs.NewRelic.DebugLogging,
		"observability.health_checks.enabled":                 obs.HealthChecks.Enabled,
		"observability.health_checks.interval":                obs.HealthChecks.Interval,
		"observability.health_checks.timeout":                 obs.HealthChecks.Timeout,
		"observability.health_checks.checks":                  obs.HealthChecks.Checks,
	}
}

// envKey maps USERS_API_DATABASE__MAX_OPEN_CONNS to database.max_open_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// LoadConfig builds the Config from defaults and the environment.
//
// Behavior summary:
//   - Loads built-in defaults
//   - Overlays env vars with prefix USERS_API_ ("__" marks nesting)
//   - Unmarshals into Config
//   - Stamps observability service name and environment
//   - Validates struct tags
//   - Runs the observability-specific checks
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("could not load default config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{DecoderConfig: decoderConfig()}); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are not configurable on their own.
	mainConfig.Observability.ServiceName = serviceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
