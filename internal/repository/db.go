package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds template store connection settings.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS templates (
	template_id     TEXT PRIMARY KEY,
	vendor_name     TEXT NOT NULL DEFAULT '',
	structure_hash  TEXT NOT NULL,
	field_positions TEXT NOT NULL,
	item_pattern    TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	last_used       TEXT NOT NULL,
	usage_count     INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_templates_structure_hash ON templates(structure_hash);
CREATE INDEX IF NOT EXISTS idx_templates_vendor_name ON templates(vendor_name);
`

// Open opens (creating if needed) the SQLite template store and bootstraps
// its schema. SQLite is a single-writer store; the pool is capped at one
// connection so whole-row upserts serialize naturally.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening template store", "path", cfg.Path)

	dsn := cfg.Path
	if cfg.BusyTimeout > 0 {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open template store", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		logger.Error("failed to bootstrap template store schema", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("template store ready")
	return db, nil
}

// Close closes the store gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close template store", "error", err)
		return
	}
	logger.Info("template store closed")
}

// HealthCheck pings the store to catch path/permission issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging template store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
