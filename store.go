package portfolio

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// Store owns the sqlite database holding the five persisted tables: the
// transaction ledger, the asset cache, portfolio snapshots, per-symbol price
// history and the fund daily tracking table. All mutations are atomic per-row
// operations; reads of multiple tables take a single transaction for a
// consistent view.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenStore opens (creating if needed) the portfolio database at path and
// runs the schema migration. Use ":memory:" for an ephemeral store.
func OpenStore(path string, log zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL for concurrent reads while the refresh coordinator writes.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		transaction_date TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		symbol TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		total_value REAL,
		fees TEXT DEFAULT '0',
		currency TEXT DEFAULT 'TRY',
		broker TEXT,
		notes TEXT,
		is_dividend INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		symbol TEXT PRIMARY KEY,
		name TEXT,
		asset_type TEXT,
		current_price REAL,
		day_change REAL DEFAULT 0,
		last_updated TIMESTAMP,
		market TEXT,
		sector TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_date TEXT UNIQUE NOT NULL,
		total_value_tl REAL NOT NULL,
		total_value_usd REAL NOT NULL,
		total_cost_basis REAL DEFAULT 0,
		realized_pnl REAL DEFAULT 0,
		unrealized_pnl REAL DEFAULT 0,
		cash_balance REAL DEFAULT 0,
		total_return_pct REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS asset_price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT,
		price REAL,
		snapshot_date TEXT,
		UNIQUE(symbol, snapshot_date)
	)`,
	`CREATE TABLE IF NOT EXISTS tefas_daily_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT,
		price REAL,
		day_change REAL,
		snapshot_date TEXT,
		UNIQUE(symbol, snapshot_date)
	)`,
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// tables lists every persisted table, in wipe/export order.
var tables = []string{
	"transactions",
	"assets",
	"portfolio_snapshots",
	"asset_price_history",
	"tefas_daily_tracking",
}

// ClearAll wipes all persisted tables in a single transaction.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Warn().Msg("All tables cleared")
	return nil
}

// ReadView loads the ledger and the asset cache in one read transaction so
// the valuation engine computes over a consistent snapshot, never over state
// interleaved with concurrent writes.
func (s *Store) ReadView() ([]Transaction, map[string]Asset, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txs, err := scanTransactions(tx)
	if err != nil {
		return nil, nil, err
	}
	assets, err := scanAssets(tx)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}
	return txs, assets, nil
}

// querier abstracts *sql.DB and *sql.Tx for shared scan helpers.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
