package audit

import (
	"database/sql"
	"fmt"
	"time"

	"dr-go/internal/audit/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteLog implements the Log interface using SQLite.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens (or creates) the audit database at path and brings its
// schema up to date. path can be ":memory:" for an in-memory database.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Wait for locks instead of failing when requests overlap.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Begin inserts rec with status "running".
func (l *SQLiteLog) Begin(rec *Record) error {
	if rec.Status == "" {
		rec.Status = "running"
	}
	_, err := l.db.Exec(
		`INSERT INTO operations (id, operation, parameters, actor, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, rec.Parameters, rec.Actor, rec.Status, rec.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting operation record: %w", err)
	}
	return nil
}

// Finish sets the terminal status and finish time for the record.
func (l *SQLiteLog) Finish(id string, status string, finishedAt time.Time) error {
	res, err := l.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("operation record not found: %s", id)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (l *SQLiteLog) Recent(limit int) ([]*Record, error) {
	rows, err := l.db.Query(
		`SELECT id, operation, parameters, actor, status, started_at, finished_at
		 FROM operations ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operation records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Parameters, &rec.Actor,
			&rec.Status, &rec.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation record: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operation records: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// Compile-time check that SQLiteLog implements the Log interface.
var _ Log = (*SQLiteLog)(nil)
