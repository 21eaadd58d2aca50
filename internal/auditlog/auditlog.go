// Package auditlog is an append-only record of every compose/invert/rebase
// call cmd/fieldctl makes, backed by a modernc.org/sqlite database, so a
// CLI session's history can be replayed or inspected after the fact.
package auditlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Log appends operator-call records to a sqlite table.
type Log struct {
	db *sql.DB
}

// Entry is one recorded operator call.
type Entry struct {
	ID        int64
	Operator  string
	Revision  string
	Marks     int
	ElapsedMS int64
	At        time.Time
}

// Open opens (creating if absent) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: opening %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	operator   TEXT NOT NULL,
	revision   TEXT NOT NULL,
	marks      INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	at         TEXT NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("auditlog: creating schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one call entry. at is the caller's wall-clock time for
// the call, passed in rather than taken internally so callers can stamp
// entries consistently with their own clock source.
func (l *Log) Record(operator, revision string, markCount int, elapsed time.Duration, at time.Time) error {
	_, err := l.db.Exec(
		`INSERT INTO calls (operator, revision, marks, elapsed_ms, at) VALUES (?, ?, ?, ?, ?)`,
		operator, revision, markCount, elapsed.Milliseconds(), at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("auditlog: recording call: %w", err)
	}
	return nil
}

// Recent returns the most recently recorded entries, newest first, up to
// limit rows.
func (l *Log) Recent(limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, operator, revision, marks, elapsed_ms, at FROM calls ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditlog: querying recent calls: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.Operator, &e.Revision, &e.Marks, &e.ElapsedMS, &at); err != nil {
			return nil, fmt.Errorf("auditlog: scanning call row: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("auditlog: parsing timestamp: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
