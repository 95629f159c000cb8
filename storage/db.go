package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

// Open opens the database at the given path and initializes the schema.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS corrections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		correction_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

		-- Request
		language TEXT NOT NULL,
		input_chars INTEGER NOT NULL,

		-- Provider info
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 1,

		-- Output
		output_chars INTEGER NOT NULL,
		changed BOOLEAN NOT NULL,
		latency_ms INTEGER NOT NULL,

		-- Status
		success BOOLEAN NOT NULL,
		error_kind TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_corrections_timestamp ON corrections(timestamp);
	CREATE INDEX IF NOT EXISTS idx_corrections_provider ON corrections(provider);
	CREATE INDEX IF NOT EXISTS idx_corrections_success ON corrections(success);
	`

	_, err := db.conn.Exec(schema)
	return err
}
