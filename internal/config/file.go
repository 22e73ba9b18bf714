package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout accepted through SHUMA_CONFIG_FILE.
// ${VAR} references are expanded from the environment before parsing.
type fileConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	Env      string `yaml:"env"`

	Database struct {
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		MaxConns int    `yaml:"max_connections"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		TokenTTL   string `yaml:"token_ttl"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	RateLimit struct {
		Backend       string `yaml:"backend"`
		BookingLimit  int    `yaml:"booking_limit"`
		BookingWindow string `yaml:"booking_window"`
		APILimit      int    `yaml:"api_limit"`
		APIWindow     string `yaml:"api_window"`
		Redis         struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"rate_limit"`

	TrustedProxies []string `yaml:"trusted_proxies"`
	CORSOrigins    []string `yaml:"cors_origins"`

	Monitoring struct {
		Metrics        *bool  `yaml:"metrics_enabled"`
		GRPCAddr       string `yaml:"grpc_addr"`
		HealthInterval string `yaml:"health_interval"`
	} `yaml:"monitoring"`

	Bookings struct {
		MaxPageSize       int   `yaml:"max_page_size"`
		StrictTransitions *bool `yaml:"strict_transitions"`
	} `yaml:"bookings"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// values flattens the file into the same keys the environment uses. Unset
// fields are left out so built-in defaults still apply.
func (fc fileConfig) values() map[string]string {
	m := map[string]string{}
	set := func(key, v string) {
		if strings.TrimSpace(v) != "" {
			m[key] = v
		}
	}
	setInt := func(key string, v int) {
		if v != 0 {
			m[key] = strconv.Itoa(v)
		}
	}
	setBool := func(key string, v *bool) {
		if v != nil {
			m[key] = strconv.FormatBool(*v)
		}
	}

	set("SHUMA_HTTP_ADDR", fc.HTTPAddr)
	set("SHUMA_ENV", fc.Env)

	set("SHUMA_DB_DRIVER", fc.Database.Driver)
	set("SHUMA_DB_PATH", fc.Database.Path)
	set("DB_HOST", fc.Database.Host)
	setInt("DB_PORT", fc.Database.Port)
	set("DB_NAME", fc.Database.Name)
	set("DB_USER", fc.Database.User)
	set("DB_PASSWORD", fc.Database.Password)
	set("DB_SSLMODE", fc.Database.SSLMode)
	setInt("SHUMA_DB_MAX_CONNS", fc.Database.MaxConns)

	set("JWT_SECRET", fc.Auth.JWTSecret)
	set("SHUMA_TOKEN_TTL", fc.Auth.TokenTTL)
	setInt("SHUMA_BCRYPT_COST", fc.Auth.BcryptCost)

	set("SHUMA_RATELIMIT_BACKEND", fc.RateLimit.Backend)
	setInt("SHUMA_BOOKING_RATE_LIMIT", fc.RateLimit.BookingLimit)
	set("SHUMA_BOOKING_RATE_WINDOW", fc.RateLimit.BookingWindow)
	setInt("SHUMA_API_RATE_LIMIT", fc.RateLimit.APILimit)
	set("SHUMA_API_RATE_WINDOW", fc.RateLimit.APIWindow)
	set("SHUMA_REDIS_ADDR", fc.RateLimit.Redis.Address)
	set("SHUMA_REDIS_PASSWORD", fc.RateLimit.Redis.Password)
	setInt("SHUMA_REDIS_DB", fc.RateLimit.Redis.DB)

	set("SHUMA_TRUSTED_PROXIES", strings.Join(fc.TrustedProxies, ","))
	set("SHUMA_CORS_ORIGINS", strings.Join(fc.CORSOrigins, ","))

	setBool("SHUMA_METRICS_ENABLED", fc.Monitoring.Metrics)
	set("SHUMA_GRPC_ADDR", fc.Monitoring.GRPCAddr)
	set("SHUMA_HEALTH_INTERVAL", fc.Monitoring.HealthInterval)

	setInt("SHUMA_MAX_PAGE_SIZE", fc.Bookings.MaxPageSize)
	setBool("SHUMA_STRICT_TRANSITIONS", fc.Bookings.StrictTransitions)

	set("SHUMA_LOG_LEVEL", fc.Logging.Level)
	set("SHUMA_LOG_FORMAT", fc.Logging.Format)
	return m
}
