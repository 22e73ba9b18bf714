package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside prod.
const DefaultJWTSecret = "change-this-secret-in-production"

type Config struct {
	HTTPAddr string
	Env      string // "dev" | "prod"

	// DB
	DBDriver string // "sqlite" | "postgres" | "memory"
	DBPath   string // sqlite file, e.g. "./data/shuma.db"
	Postgres PostgresConfig

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	RateLimit      RateLimitConfig
	TrustedProxies []string
	CORSOrigins    []string

	MetricsEnabled bool
	GRPCAddr       string // empty disables the gRPC health server
	HealthInterval time.Duration

	MaxPageSize       int
	StrictTransitions bool

	// Dev seed; ignored in prod.
	DevAdminUser     string
	DevAdminPassword string

	LogLevel  string
	LogFormat string
}

type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

type RateLimitConfig struct {
	Backend string // "memory" | "redis"

	BookingLimit  int
	BookingWindow time.Duration
	APILimit      int
	APIWindow     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env (when present), then the optional YAML file named by
// SHUMA_CONFIG_FILE, then the environment. Environment values win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	defaults := map[string]string{}
	if path := strings.TrimSpace(os.Getenv("SHUMA_CONFIG_FILE")); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		defaults = fc.values()
	}

	cfg := fromLookup(func(key string) string {
		if v := os.Getenv(key); strings.TrimSpace(v) != "" {
			return v
		}
		return defaults[key]
	})
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	return fromLookup(os.Getenv)
}

func fromLookup(get func(string) string) Config {
	l := lookup(get)

	addr := l.str("SHUMA_HTTP_ADDR", "")
	if addr == "" {
		addr = ":" + l.str("PORT", "3000")
	}

	env := strings.ToLower(l.str("SHUMA_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,

		DBDriver: strings.ToLower(l.str("SHUMA_DB_DRIVER", "sqlite")),
		DBPath:   l.str("SHUMA_DB_PATH", "./data/shuma.db"),
		Postgres: PostgresConfig{
			Host:     l.str("DB_HOST", "localhost"),
			Port:     l.int("DB_PORT", 5432),
			Name:     l.str("DB_NAME", "shuma_bookings"),
			User:     l.str("DB_USER", "shuma_admin"),
			Password: l.str("DB_PASSWORD", ""),
			SSLMode:  l.str("DB_SSLMODE", "disable"),
			MaxConns: l.int("SHUMA_DB_MAX_CONNS", 20),
		},

		JWTSecret:  l.str("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:   l.duration("SHUMA_TOKEN_TTL", 8*time.Hour),
		BcryptCost: l.int("SHUMA_BCRYPT_COST", 10),

		RateLimit: RateLimitConfig{
			Backend:       strings.ToLower(l.str("SHUMA_RATELIMIT_BACKEND", "memory")),
			BookingLimit:  l.int("SHUMA_BOOKING_RATE_LIMIT", 5),
			BookingWindow: l.duration("SHUMA_BOOKING_RATE_WINDOW", time.Hour),
			APILimit:      l.int("SHUMA_API_RATE_LIMIT", 100),
			APIWindow:     l.duration("SHUMA_API_RATE_WINDOW", 15*time.Minute),
			RedisAddr:     l.str("SHUMA_REDIS_ADDR", "localhost:6379"),
			RedisPassword: l.str("SHUMA_REDIS_PASSWORD", ""),
			RedisDB:       l.int("SHUMA_REDIS_DB", 0),
		},
		TrustedProxies: splitCSV(l.str("SHUMA_TRUSTED_PROXIES", "")),
		CORSOrigins:    splitCSV(l.str("SHUMA_CORS_ORIGINS", "*")),

		MetricsEnabled: l.bool("SHUMA_METRICS_ENABLED", true),
		GRPCAddr:       l.str("SHUMA_GRPC_ADDR", ""),
		HealthInterval: l.duration("SHUMA_HEALTH_INTERVAL", 15*time.Second),

		MaxPageSize:       l.int("SHUMA_MAX_PAGE_SIZE", 200),
		StrictTransitions: l.bool("SHUMA_STRICT_TRANSITIONS", false),

		DevAdminUser:     l.str("SHUMA_DEV_ADMIN_USER", ""),
		DevAdminPassword: l.str("SHUMA_DEV_ADMIN_PASSWORD", ""),

		LogLevel:  l.str("SHUMA_LOG_LEVEL", "info"),
		LogFormat: l.str("SHUMA_LOG_FORMAT", ""),
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite", "postgres":
	case "memory":
		if c.Env == "prod" {
			errs = append(errs, errors.New("SHUMA_DB_DRIVER: memory is not allowed in prod"))
		}
	default:
		errs = append(errs, fmt.Errorf("SHUMA_DB_DRIVER: unknown driver %q", c.DBDriver))
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SHUMA_RATELIMIT_BACKEND: unknown backend %q", c.RateLimit.Backend))
	}
	if c.RateLimit.BookingLimit <= 0 || c.RateLimit.APILimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Env == "prod" && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in prod"))
	}
	if c.MaxPageSize <= 0 {
		errs = append(errs, errors.New("SHUMA_MAX_PAGE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// ── Lookup helpers ───────────────────────────────────────────────────────────

type lookup func(string) string

func (l lookup) str(key, def string) string {
	v := strings.TrimSpace(l(key))
	if v == "" {
		return def
	}
	return v
}

func (l lookup) int(key string, def int) int {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (l lookup) bool(key string, def bool) bool {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (l lookup) duration(key string, def time.Duration) time.Duration {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
