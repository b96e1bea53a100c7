package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvPort         = "PORT"
	EnvFrontendURL  = "FRONTEND_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// DefaultPort is the HTTP port used when neither config nor env sets one.
const DefaultPort = 3000

// DefaultAllowedOrigins are the browser origins accepted when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:4200", "http://localhost:3000"}

// Default rate limit values.
const (
	DefaultRateLimit            = 20
	DefaultRateLimitRedisPrefix = "organizer:rl"
)

// CORSConfig holds browser origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed-origins"`
}

// RateLimitConfig holds per-user request limits. Limit is requests per
// second; zero disables limiting.
type RateLimitConfig struct {
	Limit         int    `yaml:"limit"`
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// HabitsConfig holds habit maintenance settings.
type HabitsConfig struct {
	SweepInterval time.Duration `yaml:"sweep-interval"`
}

// ServerConfig holds the HTTP server settings read from the config file.
type ServerConfig struct {
	Host          string          `yaml:"host"`
	Port          int             `yaml:"port"`
	Debug         bool            `yaml:"debug"`
	LoggingToFile bool            `yaml:"logging-to-file"`
	LogDir        string          `yaml:"log-dir"`
	CORS          CORSConfig      `yaml:"cors"`
	RateLimit     RateLimitConfig `yaml:"rate-limit"`
	Habits        HabitsConfig    `yaml:"habits"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadServerConfig reads server settings from the YAML config file and
// applies environment overrides. A missing file yields defaults.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	cfg := ServerConfig{
		RateLimit: RateLimitConfig{Limit: DefaultRateLimit},
	}

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return ServerConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		port, errParse := strconv.Atoi(raw)
		if errParse != nil || port <= 0 || port > 65535 {
			return ServerConfig{}, fmt.Errorf("invalid %s: %q", EnvPort, raw)
		}
		cfg.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv(EnvFrontendURL)); raw != "" {
		cfg.CORS.AllowedOrigins = splitList(raw)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *ServerConfig) normalize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	origins := make([]string, 0, len(c.CORS.AllowedOrigins))
	for _, origin := range c.CORS.AllowedOrigins {
		if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, DefaultAllowedOrigins...)
	}
	c.CORS.AllowedOrigins = origins

	if c.RateLimit.Limit < 0 {
		c.RateLimit.Limit = 0
	}
	if c.RateLimit.RedisDB < 0 {
		c.RateLimit.RedisDB = 0
	}
	c.RateLimit.RedisAddr = strings.TrimSpace(c.RateLimit.RedisAddr)
	c.RateLimit.RedisPrefix = strings.TrimSpace(c.RateLimit.RedisPrefix)
	if c.RateLimit.RedisPrefix == "" {
		c.RateLimit.RedisPrefix = DefaultRateLimitRedisPrefix
	}
	if c.Habits.SweepInterval < 0 {
		c.Habits.SweepInterval = 0
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = "logs"
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
