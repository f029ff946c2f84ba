// Package config loads the service configuration from a YAML file, with
// environment variables taking precedence over file values.
package config

import (
	"errors"
	"fmt"
	"time"

	"duesbook/pkg/credential"

	"github.com/ilyakaznacheev/cleanenv"
)

// HTTP configures the API server.
type HTTP struct {
	Addr              string        `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
	// MaxHeaderBytes of 0 keeps net/http's default.
	MaxHeaderBytes int    `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
	MetricsPath    string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-default:"*" yaml:"allowedOrigins"`
	EnablePprof    bool     `env:"HTTP_ENABLE_PPROF" env-default:"false" yaml:"enablePprof"`
	// RegistrationRate is the per-client rate, in requests per second, of
	// registration and credential verification.
	RegistrationRate  float64 `env:"HTTP_REGISTRATION_RATE" env-default:"1" yaml:"registrationRate"`
	RegistrationBurst int     `env:"HTTP_REGISTRATION_BURST" env-default:"5" yaml:"registrationBurst"`
	// TrustProxy keys the registration limit on X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" env-default:"false" yaml:"trustProxy"`
}

// Database configures the PostgreSQL connection pool.
type Database struct {
	Username           string        `env:"DATABASE_USERNAME" env-default:"duesbook" yaml:"username"`
	Password           string        `env:"DATABASE_PASSWORD" env-default:"duesbook" yaml:"password"`
	Host               string        `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
	Port               int           `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
	SslMode            string        `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
	DatabaseName       string        `env:"DATABASE_NAME" env-default:"duesbook" yaml:"name"`
	ApplicationName    string        `env:"DATABASE_APPLICATION_NAME" env-default:"duesbook" yaml:"applicationName"`
	MaxOpenConnections int           `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
	MaxIdleConnections int           `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
	ConnMaxLifetime    time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
	ConnMaxIdleTime    time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
}

// Credential configures the secret policy and the argon2id cost.
type Credential struct {
	MinLength      int    `env:"CREDENTIAL_MIN_LENGTH" env-default:"12" yaml:"minLength"`
	MaxLength      int    `env:"CREDENTIAL_MAX_LENGTH" env-default:"256" yaml:"maxLength"`
	RejectVeryWeak bool   `env:"CREDENTIAL_REJECT_VERY_WEAK" env-default:"true" yaml:"rejectVeryWeak"`
	MemoryKiB      uint32 `env:"CREDENTIAL_ARGON2_MEMORY_KIB" env-default:"65536" yaml:"memoryKiB"`
	Iterations     uint32 `env:"CREDENTIAL_ARGON2_ITERATIONS" env-default:"3" yaml:"iterations"`
	Parallelism    uint8  `env:"CREDENTIAL_ARGON2_PARALLELISM" env-default:"2" yaml:"parallelism"`
	SaltLength     uint32 `env:"CREDENTIAL_ARGON2_SALT_LENGTH" env-default:"16" yaml:"saltLength"`
	KeyLength      uint32 `env:"CREDENTIAL_ARGON2_KEY_LENGTH" env-default:"32" yaml:"keyLength"`
}

// Billing configures payment status evaluation and the background jobs.
type Billing struct {
	// TimeZone is the IANA zone whose calendar decides what "today" is.
	TimeZone string `env:"BILLING_TIME_ZONE" env-default:"UTC" yaml:"timeZone"`
	// OverdueSweepInterval of 0 disables the periodic overdue count. cleanenv
	// replaces a zero file value with the default, so disable it through the
	// environment (BILLING_OVERDUE_SWEEP_INTERVAL=0s).
	OverdueSweepInterval  time.Duration `env:"BILLING_OVERDUE_SWEEP_INTERVAL" env-default:"5m" yaml:"overdueSweepInterval"`
	SettledJobMaxAttempts int           `env:"BILLING_SETTLED_JOB_MAX_ATTEMPTS" env-default:"5" yaml:"settledJobMaxAttempts"`
	Workers               int           `env:"BILLING_WORKERS" env-default:"2" yaml:"workers"`
}

// Config is the complete service configuration.
type Config struct {
	// Environment is "development" or "production"; it selects the log format.
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default level when set.
	LogLevel string `env:"LOG_LEVEL" env-default:"" yaml:"logLevel"`

	HTTP       HTTP       `yaml:"http"`
	Database   Database   `yaml:"database"`
	Credential Credential `yaml:"credential"`
	Billing    Billing    `yaml:"billing"`

	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Location resolves Billing.TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Billing.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("could not load billing time zone %q: %w", c.Billing.TimeZone, err)
	}

	return loc, nil
}

func (c *Config) validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Credential.MinLength < 1 {
		errs = append(errs, errors.New("credential.minLength must be positive"))
	}
	if c.Credential.MaxLength != 0 && c.Credential.MaxLength < c.Credential.MinLength {
		errs = append(errs, errors.New("credential.maxLength must not be below credential.minLength"))
	}
	if n := c.Credential.SaltLength; n < credential.MinSaltLength || n > credential.MaxSaltLength {
		errs = append(errs, fmt.Errorf("credential.saltLength must be between %d and %d, got %d",
			credential.MinSaltLength, credential.MaxSaltLength, n))
	}
	if n := c.Credential.KeyLength; n < credential.MinKeyLength || n > credential.MaxKeyLength {
		errs = append(errs, fmt.Errorf("credential.keyLength must be between %d and %d, got %d",
			credential.MinKeyLength, credential.MaxKeyLength, n))
	}
	if c.Billing.OverdueSweepInterval < 0 {
		errs = append(errs, errors.New("billing.overdueSweepInterval must not be negative"))
	}
	if c.Billing.SettledJobMaxAttempts < 1 {
		errs = append(errs, errors.New("billing.settledJobMaxAttempts must be positive"))
	}

	return errors.Join(errs...)
}

// Load reads the YAML file at configPath, applies environment overrides and
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
