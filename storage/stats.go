package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date             string
	TotalCorrections int
	SuccessCount     int
	FailureCount     int
	ChangedCount     int
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalCorrections int
	SuccessCount     int
	FailureCount     int
	ChangedCount     int
	TotalInputChars  int64
	AvgLatencyMs     float64
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_corrections,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count,
			SUM(CASE WHEN changed = 1 THEN 1 ELSE 0 END) as changed_count
		FROM corrections
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalCorrections, &s.SuccessCount, &s.FailureCount, &s.ChangedCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves aggregate statistics across all corrections
func (db *DB) GetOverallStats() (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN changed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_chars), 0),
			COALESCE(AVG(latency_ms), 0)
		FROM corrections
	`

	var s OverallStats
	err := db.conn.QueryRow(query).Scan(
		&s.TotalCorrections, &s.SuccessCount, &s.FailureCount,
		&s.ChangedCount, &s.TotalInputChars, &s.AvgLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &s, nil
}

// ErrorKindStats represents failure counts grouped by error kind
type ErrorKindStats struct {
	Kind  string
	Count int
}

// GetErrorKindStats retrieves failure counts per error kind for the last N days
func (db *DB) GetErrorKindStats(days int) ([]ErrorKindStats, error) {
	query := `
		SELECT error_kind, COUNT(*)
		FROM corrections
		WHERE success = 0
		  AND error_kind IS NOT NULL AND error_kind != ''
		  AND timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY error_kind
		ORDER BY COUNT(*) DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query error stats: %w", err)
	}
	defer rows.Close()

	var stats []ErrorKindStats
	for rows.Next() {
		var s ErrorKindStats
		if err := rows.Scan(&s.Kind, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan error stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
