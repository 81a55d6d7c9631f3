package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"toolbox_back/config"
)

// Open connects using cfg. When no driver is set it is inferred from the DSN.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("database: DATABASE_DSN is required")
	}

	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = inferDriverFromDSN(dsn)
		if driver == "" {
			return nil, errors.New("database: DATABASE_DRIVER is required when DSN does not contain a scheme")
		}
	}

	return openDatabase(driver, dsn, gormlogger.Default)
}

// OpenSQLite opens a sqlite database with gorm logging silenced. Used by tests and tooling.
func OpenSQLite(path string) (*gorm.DB, error) {
	return openDatabase("sqlite", path, gormlogger.Default.LogMode(gormlogger.Silent))
}

func openDatabase(driver, dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
		Logger:         logger,
	}

	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pg":
		return gorm.Open(postgres.Open(dsn), gormConfig)
	case "mysql":
		return gorm.Open(mysql.Open(strings.TrimPrefix(dsn, "mysql://")), gormConfig)
	case "sqlite", "sqlite3":
		return gorm.Open(sqlite.Open(sqliteDSN(dsn)), gormConfig)
	default:
		return nil, fmt.Errorf("database: unsupported database driver %q", driver)
	}
}

func inferDriverFromDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return "sqlite"
	default:
		return ""
	}
}

// sqliteDSN strips the sqlite:// scheme and turns on foreign keys and a busy timeout
// so concurrent writers wait instead of failing with SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite://")
	var params []string
	if !strings.Contains(path, "_foreign_keys") && !strings.Contains(path, "_fk") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(path, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}
