package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDSNPrefix marks a DSN that targets a SQLite file.
const sqliteDSNPrefix = "file:"

// IsSQLiteDSN reports whether dsn targets SQLite rather than PostgreSQL.
func IsSQLiteDSN(dsn string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(trimmed, sqliteDSNPrefix) || trimmed == ":memory:"
}

// Open connects to the database described by dsn. DSNs starting with
// "file:" are opened with the pure-Go SQLite driver, everything else is
// handed to the PostgreSQL driver.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	if IsSQLiteDSN(dsn) {
		conn, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("db: sqlite handle: %w", err)
		}
		// SQLite allows one writer; a single connection serializes writes
		// instead of surfacing SQLITE_BUSY to callers.
		sqlDB.SetMaxOpenConns(1)
		return conn, nil
	}

	conn, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("db: open postgres: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("db: sql handle: %w", err)
	}
	return sqlDB.Close()
}

// BuildSQLiteDSN turns a file path into a SQLite DSN with the pragmas the
// service relies on.
func BuildSQLiteDSN(path string) string {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	if !strings.HasPrefix(strings.ToLower(dsn), sqliteDSNPrefix) {
		dsn = sqliteDSNPrefix + dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join([]string{
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
	}, "&")
}

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "organizer.db"
