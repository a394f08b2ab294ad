package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/facilityops/visit-booking/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Scheduling   SchedulingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	DialTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig configures status-change notifications.
type NotificationConfig struct {
	Enabled       bool
	EmailFrom     string
	WebhookURL    string
	RedisChannel  string
	SubjectPrefix string
	Workers       int
	QueueSize     int
}

// LockBackend selects the booking lock implementation.
type LockBackend string

const (
	LockBackendLocal LockBackend = "local"
	LockBackendRedis LockBackend = "redis"
)

// SchedulingConfig holds facility scheduling rules.
type SchedulingConfig struct {
	Timezone       string
	AllowedHours   map[domain.Category][]int
	LockBackend    LockBackend
	LockTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	hours, err := loadAllowedHours()
	if err != nil {
		return nil, err
	}

	backend := LockBackend(strings.ToLower(getEnv("BOOKING_LOCK_BACKEND", string(LockBackendLocal))))
	if backend != LockBackendLocal && backend != LockBackendRedis {
		return nil, fmt.Errorf("invalid BOOKING_LOCK_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "visit-booking-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:               os.Getenv("REDIS_ADDR"),
			Password:           os.Getenv("REDIS_PASSWORD"),
			DB:                 redisDB,
			DialTimeoutSeconds: getEnvAsInt("REDIS_DIAL_TIMEOUT_SECONDS", 2),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			Enabled:       getEnvAsBool("NOTIFY_ENABLED", true),
			EmailFrom:     getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
			RedisChannel:  getEnv("NOTIFY_REDIS_CHANNEL", "appointments.status"),
			SubjectPrefix: getEnv("NOTIFY_SUBJECT_PREFIX", "[Facility]"),
			Workers:       getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize:     getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		Scheduling: SchedulingConfig{
			Timezone:       getEnv("FACILITY_TIMEZONE", "UTC"),
			AllowedHours:   hours,
			LockBackend:    backend,
			LockTTLSeconds: getEnvAsInt("BOOKING_LOCK_TTL_SECONDS", 10),
		},
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

// DialTimeout returns the Redis connectivity check timeout.
func (r RedisConfig) DialTimeout() time.Duration {
	if r.DialTimeoutSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(r.DialTimeoutSeconds) * time.Second
}

// Location resolves the facility time zone.
func (s SchedulingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// LockTTL returns how long a booking lock may be held.
func (s SchedulingConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// SlotRules builds the immutable hour rules from configuration.
func (s SchedulingConfig) SlotRules() (*domain.SlotRules, error) {
	loc, err := s.Location()
	if err != nil {
		return nil, err
	}
	return domain.NewSlotRules(s.AllowedHours, loc)
}

func loadAllowedHours() (map[domain.Category][]int, error) {
	hours := domain.DefaultAllowedHours()
	for _, category := range domain.Categories() {
		key := "SLOT_HOURS_" + string(category)
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		list, err := parseHours(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		hours[category] = list
	}
	return hours, nil
}

func parseHours(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range", h)
		}
		out = append(out, h)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
