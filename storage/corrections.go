package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Correction represents a single correction cycle with its outcome.
// Only sizes and metadata are stored, never the clipboard text itself.
type Correction struct {
	ID           int64
	CorrectionID string
	Timestamp    time.Time
	Language     string
	InputChars   int
	Provider     string
	Model        string
	Attempts     int
	OutputChars  int
	Changed      bool
	LatencyMs    int64
	Success      bool
	ErrorKind    string
	ErrorMessage string
}

// SaveCorrection saves a correction record to the database
func (db *DB) SaveCorrection(c *Correction) error {
	query := `
		INSERT INTO corrections (
			correction_id, language, input_chars, provider, model, attempts,
			output_chars, changed, latency_ms, success, error_kind, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		c.CorrectionID, c.Language, c.InputChars, c.Provider, c.Model, c.Attempts,
		c.OutputChars, c.Changed, c.LatencyMs, c.Success, c.ErrorKind, c.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save correction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	c.ID = id
	return nil
}

// GetCorrections retrieves correction records with pagination
func (db *DB) GetCorrections(limit, offset int) ([]Correction, error) {
	query := `
		SELECT
			id, correction_id, timestamp, language, input_chars, provider, model,
			attempts, output_chars, changed, latency_ms, success, error_kind, error_message
		FROM corrections
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	var corrections []Correction
	for rows.Next() {
		var c Correction
		var errorKind, errorMessage sql.NullString

		err := rows.Scan(
			&c.ID, &c.CorrectionID, &c.Timestamp, &c.Language, &c.InputChars,
			&c.Provider, &c.Model, &c.Attempts, &c.OutputChars, &c.Changed,
			&c.LatencyMs, &c.Success, &errorKind, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}

		if errorKind.Valid {
			c.ErrorKind = errorKind.String
		}
		if errorMessage.Valid {
			c.ErrorMessage = errorMessage.String
		}

		corrections = append(corrections, c)
	}

	return corrections, rows.Err()
}

// DeleteCorrection deletes a correction record by ID
func (db *DB) DeleteCorrection(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM corrections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("correction not found")
	}

	return nil
}

// GetCorrectionCount returns the total number of correction records
func (db *DB) GetCorrectionCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM corrections").Scan(&count)
	return count, err
}
