// Package repo implements the data persistence layer for signals, analyses,
// deliveries, mutes and the inbox projection, backed by GORM. This file
// contains database bootstrapping helpers for SQLite (pure Go driver) and
// Postgres, plus schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-signal-pipeline/internal/domain"
)

// Supported values for Options.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the backing database.
type Options struct {
	Driver      string // sqlite|postgres
	SQLitePath  string
	PostgresURL string
	Tracing     bool // attach the OpenTelemetry GORM plugin
}

// Open connects to the configured driver, optionally installs tracing and
// runs AutoMigrate.
func Open(o Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(o.Driver) {
	case DriverSQLite, "":
		db, err = OpenSQLite(o.SQLitePath)
	case DriverPostgres:
		db, err = OpenPostgres(o.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", o.Driver)
	}
	if err != nil {
		return nil, err
	}
	if o.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("install gorm tracing: %w", err)
		}
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
// The parent directory is created when missing.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig())
	if err != nil {
		return nil, err
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// sqliteDSN appends sqlitePragmas to path as _pragma query parameters.
func sqliteDSN(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// OpenPostgres connects to a Postgres database using a URL or key=value DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates or updates every table the pipeline uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Signal{},
		&domain.Analysis{},
		&domain.Delivery{},
		&domain.Mute{},
		&domain.Hidden{},
		&domain.Favorite{},
		&domain.Idempotency{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
