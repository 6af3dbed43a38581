// Package audit is an append-only execution ledger: a local SQLite
// database recording one row per Runtime.Execute call, for the `history`
// CLI command and operator review. This is deliberately not a
// resumability mechanism — spec.md §1 excludes resumability across
// process restarts as a non-goal, and nothing here reads the ledger back
// to resume a crashed handler. Grounded on the teacher's
// internal/sync/ledger.go, stripped to its insert-only sliver.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one row of execution history.
type Entry struct {
	ID          string
	HandlerName string
	InputPath   string
	Disposition string
	FileCount   int
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
}

// Ledger records execution history to a SQLite database. A nil *Ledger
// is never constructed; callers that don't want auditing simply don't
// wire one into internal/pipeline.Runtime (Runtime.Audit is nil-safe).
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite database at path and
// migrates it to the current schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: opening database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()

		return nil, err
	}

	return &Ledger{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one execution row. An unset StartedAt is filled with
// time.Now at call time and an unset FinishedAt with StartedAt, since
// timestamps here are operator history, not a correctness signal the
// runtime depends on. Duration, if not explicitly set, is derived from
// the two timestamps.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	if e.FinishedAt.IsZero() {
		e.FinishedAt = e.StartedAt
	}

	if e.Duration == 0 {
		e.Duration = e.FinishedAt.Sub(e.StartedAt)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO executions (id, handler_name, input_path, disposition, file_count, started_at, finished_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HandlerName, e.InputPath, e.Disposition, e.FileCount, e.StartedAt, e.FinishedAt, e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("audit: recording execution: %w", err)
	}

	return nil
}

// Recent returns the n most recently finished executions, newest first,
// for the `ingestpipe history` command.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, handler_name, input_path, disposition, file_count, started_at, finished_at, duration_ms
		 FROM executions ORDER BY finished_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("audit: querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry

	for rows.Next() {
		var e Entry

		var durationMS int64

		if err := rows.Scan(&e.ID, &e.HandlerName, &e.InputPath, &e.Disposition,
			&e.FileCount, &e.StartedAt, &e.FinishedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("audit: scanning history row: %w", err)
		}

		e.Duration = time.Duration(durationMS) * time.Millisecond

		out = append(out, e)
	}

	return out, rows.Err()
}
