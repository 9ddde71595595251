package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Realtime     RealtimeConfig
	Storage      StorageConfig
	Onboarding   OnboardingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"support-desk"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	BodyLimitBytes        int    `env:"HTTP_BODY_LIMIT_BYTES" envDefault:"20971520"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr keeps room fan-out local.
type RedisConfig struct {
	Addr        string `env:"REDIS_ADDR"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB" envDefault:"0"`
	RoomChannel string `env:"REDIS_ROOM_CHANNEL" envDefault:"support-desk:rooms"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	BootstrapAdminUser    string `env:"AUTH_BOOTSTRAP_ADMIN_USER" envDefault:"admin"`
	BootstrapAdminPass    string `env:"AUTH_BOOTSTRAP_ADMIN_PASSWORD"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

// RealtimeConfig controls the WebSocket listener and room fan-out buffers.
type RealtimeConfig struct {
	Host              string `env:"REALTIME_HOST" envDefault:"0.0.0.0"`
	Port              string `env:"REALTIME_PORT" envDefault:"8081"`
	ClientBufferSize  int    `env:"REALTIME_CLIENT_BUFFER" envDefault:"64"`
	EventQueueSize    int    `env:"REALTIME_EVENT_QUEUE" envDefault:"1024"`
	AllowedOrigin     string `env:"REALTIME_ALLOWED_ORIGIN"`
	PingPeriodSeconds int    `env:"REALTIME_PING_PERIOD_SECONDS" envDefault:"54"`
}

// StorageConfig configures the local blob store.
type StorageConfig struct {
	Root           string   `env:"STORAGE_ROOT" envDefault:"uploads"`
	MaxUploadBytes int64    `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"16777216"`
	AttachmentExts []string `env:"STORAGE_ATTACHMENT_EXTENSIONS" envSeparator:"," envDefault:"jpg,jpeg,png,gif,webp,mp4,mov,avi,webm,mkv,pdf,doc,docx,txt,zip"`
	DocumentExts   []string `env:"STORAGE_DOCUMENT_EXTENSIONS" envSeparator:"," envDefault:"pdf,doc,docx,jpg,jpeg,png"`
}

// OnboardingConfig gates staff self-registration.
type OnboardingConfig struct {
	RegistrationCode string `env:"STAFF_REGISTRATION_CODE"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns the WebSocket bind address.
func (r RealtimeConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// PingPeriod returns the keepalive interval for WebSocket connections.
func (r RealtimeConfig) PingPeriod() time.Duration {
	if r.PingPeriodSeconds <= 0 {
		return 54 * time.Second
	}
	return time.Duration(r.PingPeriodSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}
