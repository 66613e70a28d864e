package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements the ports.OrderJournal interface using SQLite.
// It is a write-mostly audit log; the trading loop never reads it back
// for decisions.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal creates a new SQLite journal instance.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trading_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	journal := &Journal{db: db, logger: cfg.Logger}

	if err := journal.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Order journal initialized", map[string]interface{}{"path": dbPath})

	return journal, nil
}

// initializeSchema creates tables if they don't exist.
func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		reason TEXT NOT NULL,
		volume_ratio REAL NOT NULL DEFAULT 0,
		price_change_pct REAL NOT NULL DEFAULT 0,
		submitted_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_submitted_at ON orders (submitted_at);
	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders (symbol);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordOrder saves a submitted order and returns its assigned ID.
func (j *Journal) RecordOrder(ctx context.Context, rec *domain.OrderRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("%w: nil order record", ports.ErrInvalidRequest)
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO orders (symbol, side, quantity, reason, volume_ratio, price_change_pct, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, string(rec.Side), rec.Quantity, string(rec.Reason),
		rec.VolumeRatio, rec.PriceChangePct, rec.SubmittedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert order: %v", ports.ErrQueryFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ports.ErrQueryFailed, err)
	}
	rec.ID = id
	return id, nil
}

// FindRecent retrieves the most recent orders, newest first, up to limit.
func (j *Journal) FindRecent(ctx context.Context, limit int) ([]*domain.OrderRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ports.ErrInvalidRequest)
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, symbol, side, quantity, reason, volume_ratio, price_change_pct, submitted_at
		 FROM orders ORDER BY submitted_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []*domain.OrderRecord
	for rows.Next() {
		var rec domain.OrderRecord
		var side, reason string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &side, &rec.Quantity, &reason,
			&rec.VolumeRatio, &rec.PriceChangePct, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("%w: scan order: %v", ports.ErrQueryFailed, err)
		}
		rec.Side = domain.OrderSide(side)
		rec.Reason = domain.OrderReason(reason)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate orders: %v", ports.ErrQueryFailed, err)
	}
	return out, nil
}

// CountToday counts orders submitted since UTC midnight.
func (j *Journal) CountToday(ctx context.Context) (int, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	var count int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE submitted_at >= ?`, midnight).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count orders: %v", ports.ErrQueryFailed, err)
	}
	return count, nil
}
