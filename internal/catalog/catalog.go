package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photovault/internal/logging"
	"photovault/internal/metrics"
)

// Default timeout for catalog operations
const defaultTimeout = 5 * time.Second

// Catalog manages the asset table and term index of one vault.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open opens (creating the schema if absent) the catalog at dbPath.
// dbPath must be the full path to the database file inside the vault root;
// the parent directory must already exist.
func Open(ctx context.Context, dbPath string) (*Catalog, error) {
	logging.Debug("Catalog path: %s", dbPath)

	// WAL keeps readers unblocked while the import loop writes;
	// busy_timeout prevents spurious "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db, dbPath: dbPath}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- One row per imported asset, keyed by content id
	CREATE TABLE IF NOT EXISTS asset (
		id TEXT PRIMARY KEY,
		orig_path TEXT NOT NULL,
		vault_path TEXT NOT NULL,
		media_type TEXT NOT NULL,
		created_ts INTEGER NOT NULL,
		width INTEGER,
		height INTEGER,
		duration_ms INTEGER,
		exif_lat REAL,
		exif_lon REAL,
		exif_place TEXT,
		bytes_orig INTEGER NOT NULL DEFAULT 0,
		bytes_vault INTEGER NOT NULL DEFAULT 0,
		checksum_orig TEXT,
		checksum_vault TEXT,
		quality_preset TEXT NOT NULL,
		state TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_asset_created ON asset(created_ts);
	CREATE INDEX IF NOT EXISTS idx_asset_media_type ON asset(media_type);

	-- Append-only search terms; duplicates are acceptable redundancy
	CREATE TABLE IF NOT EXISTS index_terms (
		asset_id TEXT NOT NULL,
		term TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_terms_asset ON index_terms(asset_id);
	CREATE INDEX IF NOT EXISTS idx_terms_term ON index_terms(term);
	`

	_, err = c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the catalog connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// recordQuery records catalog query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
