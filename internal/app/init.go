package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/personal-organizer/organizer/internal/config"
	"github.com/personal-organizer/organizer/internal/db"
	"github.com/personal-organizer/organizer/internal/security"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// InitOptions contains parameters for writing a first config file.
type InitOptions struct {
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabasePath     string
	DatabaseSSLMode  string
	Port             int
	Force            bool
}

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// BuildDSN builds a database DSN from the init options.
func BuildDSN(opts InitOptions) (string, error) {
	switch strings.ToLower(strings.TrimSpace(opts.DatabaseType)) {
	case "", "sqlite":
		path := strings.TrimSpace(opts.DatabasePath)
		if path == "" {
			path = db.DefaultSQLitePath
		}
		return db.BuildSQLiteDSN(path), nil
	case "postgres":
		sslMode := opts.DatabaseSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			opts.DatabaseUser,
			opts.DatabasePassword,
			opts.DatabaseHost,
			opts.DatabasePort,
			opts.DatabaseName,
			sslMode,
		), nil
	default:
		return "", fmt.Errorf("unsupported database type")
	}
}

// TestDatabaseConnection validates that the DSN can connect and ping.
func TestDatabaseConnection(dsn string) error {
	conn, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	defer func() {
		err = sqlDB.Close()
		if err != nil {
			log.Errorf("sql db close error: %v", err)
		}
	}()
	return sqlDB.Ping()
}

// validateInitOptions normalizes and validates init input data.
func validateInitOptions(opts *InitOptions) error {
	dbType := strings.ToLower(strings.TrimSpace(opts.DatabaseType))
	if dbType == "" {
		dbType = "sqlite"
	}
	opts.DatabaseType = dbType

	switch dbType {
	case "postgres":
		if strings.TrimSpace(opts.DatabaseHost) == "" {
			return fmt.Errorf("database host is required")
		}
		if opts.DatabasePort <= 0 {
			opts.DatabasePort = 5432
		}
		if strings.TrimSpace(opts.DatabaseUser) == "" {
			return fmt.Errorf("database username is required")
		}
		if strings.TrimSpace(opts.DatabaseName) == "" {
			return fmt.Errorf("database name is required")
		}
	case "sqlite":
		if strings.TrimSpace(opts.DatabasePath) == "" {
			opts.DatabasePath = db.DefaultSQLitePath
		}
	default:
		return fmt.Errorf("unsupported database type %q", opts.DatabaseType)
	}
	if opts.Port <= 0 {
		opts.Port = config.DefaultPort
	}
	if opts.Port > 65535 {
		return fmt.Errorf("invalid port: %d", opts.Port)
	}
	return nil
}

// configFile maps YAML fields for the generated config file.
type configFile struct {
	Host          string       `yaml:"host"`
	Port          int          `yaml:"port"`
	DatabaseDSN   string       `yaml:"database-dsn"`
	Debug         bool         `yaml:"debug"`
	LoggingToFile bool         `yaml:"logging-to-file"`
	JWT           jwtCfg       `yaml:"jwt"`
	CORS          corsCfg      `yaml:"cors"`
	RateLimit     rateLimitCfg `yaml:"rate-limit"`
	Habits        habitsCfg    `yaml:"habits"`
}

// jwtCfg holds JWT settings for the generated config file.
type jwtCfg struct {
	Secret string `yaml:"secret"`
	Expiry string `yaml:"expiry"`
}

// corsCfg holds browser origins for the generated config file.
type corsCfg struct {
	AllowedOrigins []string `yaml:"allowed-origins"`
}

// rateLimitCfg holds limiter settings for the generated config file.
type rateLimitCfg struct {
	Limit        int    `yaml:"limit"`
	RedisEnabled bool   `yaml:"redis-enabled"`
	RedisAddr    string `yaml:"redis-addr"`
}

// habitsCfg holds habit maintenance settings for the generated config file.
type habitsCfg struct {
	SweepInterval string `yaml:"sweep-interval"`
}

// generateJWTSecret creates a random JWT secret string.
func generateJWTSecret() string {
	secret, err := security.GenerateRandomString(32)
	if err != nil {
		return "change-me-to-a-secure-random-string"
	}
	return secret
}

// WriteConfigFile writes the initial config file to disk.
func WriteConfigFile(configPath string, dsn string, port int) error {
	cfg := configFile{
		Host:          "",
		Port:          port,
		DatabaseDSN:   dsn,
		Debug:         false,
		LoggingToFile: false,
		JWT: jwtCfg{
			Secret: generateJWTSecret(),
			Expiry: "720h",
		},
		CORS: corsCfg{
			AllowedOrigins: config.DefaultAllowedOrigins,
		},
		RateLimit: rateLimitCfg{
			Limit: config.DefaultRateLimit,
		},
		Habits: habitsCfg{
			SweepInterval: "0s",
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
		return fmt.Errorf("create config dir: %w", errMkdir)
	}

	if errWrite := os.WriteFile(configPath, data, 0600); errWrite != nil {
		return fmt.Errorf("write config file: %w", errWrite)
	}

	return nil
}

// Initialize validates opts, checks the database, writes the config file and
// migrates the schema.
func Initialize(cfg config.AppConfig, opts InitOptions) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	if ConfigExists(configPath) && !opts.Force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
	}
	if errValidate := validateInitOptions(&opts); errValidate != nil {
		return errValidate
	}
	dsn, errBuild := BuildDSN(opts)
	if errBuild != nil {
		return errBuild
	}
	if errTest := TestDatabaseConnection(dsn); errTest != nil {
		return fmt.Errorf("database connection failed: %w", errTest)
	}
	if errWrite := WriteConfigFile(configPath, dsn, opts.Port); errWrite != nil {
		return errWrite
	}

	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		if errRemove := os.Remove(configPath); errRemove != nil {
			log.Errorf("remove config file error: %v", errRemove)
		}
		return fmt.Errorf("migrate database: %w", errMigrate)
	}
	log.Infof("wrote config to %s", configPath)
	return nil
}
