package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"weatherclassifier/internal/model"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens the history database at dbPath and ensures the schema exists.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", model.ErrStoreUnavailable, err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the analysis_history table and its indexes if they don't exist.
// It never touches existing rows and is safe to run on every startup.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		year INTEGER,
		month INTEGER,
		day INTEGER,
		hour INTEGER,
		minute INTEGER,
		second INTEGER,
		image_name TEXT,
		prediction TEXT,
		confidence REAL,
		duration REAL,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON analysis_history(timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_date ON analysis_history(year, month, day);
	CREATE INDEX IF NOT EXISTS idx_history_hour ON analysis_history(hour);
	`

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("%w: failed to migrate database: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
