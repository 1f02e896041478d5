package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr     string `env:"TOUCH_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP         HTTP
	Auth         Auth
	Database     Database
	Redis        RedisConfig
	Notification Notification
	Telemetry    Telemetry
}

// HTTP bounds how long the server waits on slow clients. WriteTimeout must
// stay above the 30s per-request handler timeout.
type HTTP struct {
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"35s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Auth holds session token and verification code settings.
type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"touch"`
	JWTAudience   string        `env:"JWT_AUDIENCE" envDefault:"touch-app"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CodeTTL       time.Duration `env:"CODE_TTL" envDefault:"5m"`
}

// Database configures Postgres. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ApplySchema     bool          `env:"DB_APPLY_SCHEMA" envDefault:"true"`
}

// RedisConfig configures the token revocation registry. An empty URL selects
// the in-memory registry.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Notification selects how verification codes leave the process.
type Notification struct {
	TwilioAccountSID  string   `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string   `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string   `env:"TWILIO_PHONE_NUMBER"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaSMSTopic     string   `env:"KAFKA_SMS_TOPIC" envDefault:"touch.sms.outbound"`
}

// TwilioConfigured reports whether all three Twilio credentials are present.
func (n Notification) TwilioConfigured() bool {
	return n.TwilioAccountSID != "" && n.TwilioAuthToken != "" && n.TwilioPhoneNumber != ""
}

// KafkaConfigured reports whether at least one broker is set.
func (n Notification) KafkaConfigured() bool {
	for _, b := range n.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// Telemetry configures opt-in tracing export.
type Telemetry struct {
	OTLPEndpoint string `env:"OTEL_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"touch-server"`
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Auth.JWTSigningKey == "" {
		return Server{}, fmt.Errorf("JWT_SIGNING_KEY must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 || cfg.Auth.CodeTTL <= 0 {
		return Server{}, fmt.Errorf("SESSION_TTL and CODE_TTL must be positive")
	}
	return cfg, nil
}
