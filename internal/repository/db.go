package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	driverPostgres = "pgx"
	driverSQLite   = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB pairs the sql pool with the driver it was opened with, so query
// text can be rewritten to the placeholder style that driver expects.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the job history database. Postgres DSNs go through
// the pgx driver; everything else is treated as a sqlite location.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := driverSQLite
	dsn := cfg.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = driverPostgres
	} else {
		dsn = buildSQLiteDSN(dsn)
	}
	logger.Info("connecting to database", "driver", driver, "dsn", dsn)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &DB{DB: db, driver: driver}, nil
}

// buildSQLiteDSN normalizes a sqlite path into a modernc DSN. Shared
// cache keeps :memory: visible across pool connections.
func buildSQLiteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if path == ":memory:" {
		return "file::memory:?cache=shared&_pragma=busy_timeout(5000)"
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// rebind rewrites ? placeholders to the $N form postgres expects.
// Query text in this package uses ?, which sqlite takes as-is.
func (d *DB) rebind(q string) string {
	if d.driver != driverPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] != '?' {
			b.WriteByte(q[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Close closes the database connection gracefully.
func Close(db *DB, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connection")
	if db != nil {
		if err := db.DB.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	logger.Info("database connection closed")
}

// HealthCheck pings using database/sql to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// Statements run one at a time: the pgx driver rejects multi-statement
// strings in the extended protocol.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id              TEXT PRIMARY KEY,
		image_path      TEXT NOT NULL,
		mode            TEXT NOT NULL,
		status          TEXT NOT NULL,
		started_at      TIMESTAMP NOT NULL,
		finished_at     TIMESTAMP,
		success         BOOLEAN NOT NULL DEFAULT FALSE,
		mrz_valid       BOOLEAN NOT NULL DEFAULT FALSE,
		confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
		passport_number TEXT,
		surname         TEXT,
		given_names     TEXT,
		nationality     TEXT,
		date_of_birth   TEXT,
		expiry_date     TEXT,
		issue_date      TEXT,
		error_message   TEXT,
		result_json     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS extract_jobs_started_at_idx ON extract_jobs (started_at)`,
}

// Migrate creates the job history schema if it does not exist yet. The
// DDL sticks to types both sqlite and postgres accept.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("schema migration failed", "error", err)
			return err
		}
	}
	logger.Info("database schema ready")
	return nil
}
