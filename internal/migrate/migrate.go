// Package migrate applies .sql files from a filesystem to a database, in
// filename order, and records what it applied in a schema_history table.
// Migrations that ran before are never re-run, renaming or removing an
// applied file is treated as corruption.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNoHistory indicates the schema_history table does not exist.
	ErrNoHistory = errors.New("no schema history")
	// ErrHistoryMismatch indicates the .sql files no longer line up with
	// the recorded history.
	ErrHistoryMismatch = errors.New("schema history mismatch")
)

// Applied is one migration recorded in the history.
type Applied struct {
	// Sequence numbers migrations from 0 in the order they ran.
	Sequence   int
	Filename   string
	AppVersion string
	AppliedAt  time.Time
}

// Equal checks if two history records are equal.
func (a Applied) Equal(other Applied) bool {
	return a.Sequence == other.Sequence &&
		a.Filename == other.Filename &&
		a.AppVersion == other.AppVersion &&
		a.AppliedAt.Equal(other.AppliedAt)
}

// ApplyError wraps the error a migration file failed with.
type ApplyError struct {
	Sequence int
	Filename string
	Err      error
}

func (e ApplyError) Error() string {
	return fmt.Sprintf("migration [%d] %q failed: %v", e.Sequence, e.Filename, e.Err)
}

func (e ApplyError) Unwrap() error {
	return e.Err
}

// Up applies all pending .sql files in the root of fsys and returns the
// history records it added, an empty slice when the database was already up
// to date. Everything runs in one transaction: either all pending migrations
// apply or none do. appVersion is recorded with each migration to help
// debugging later. A nil now defaults to time.Now.
func Up(ctx context.Context, db *sql.DB, fsys fs.FS, appVersion string, now func() time.Time) ([]Applied, error) {
	if now == nil {
		now = time.Now
	}

	files, err := readSQLFiles(fsys)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	added, err := upTx(ctx, tx, files, appVersion, now())
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return added, nil
}

func upTx(ctx context.Context, tx *sql.Tx, files []sqlFile, appVersion string, appliedAt time.Time) ([]Applied, error) {
	const createTable = `CREATE TABLE IF NOT EXISTS schema_history (
	sequence    INTEGER PRIMARY KEY,
	filename    TEXT NOT NULL,
	app_version TEXT NOT NULL,
	applied_at  TIMESTAMP NOT NULL
)`

	if _, err := tx.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_history table: %w", err)
	}

	history, err := scanHistory(tx.QueryContext(ctx, historyQuery))
	if err != nil {
		return nil, err
	}

	if err := verifyHistory(history, files); err != nil {
		return nil, err
	}

	added := make([]Applied, 0)
	for seq := len(history); seq < len(files); seq++ {
		f := files[seq]

		if _, err := tx.ExecContext(ctx, f.content); err != nil {
			return nil, ApplyError{Sequence: seq, Filename: f.name, Err: err}
		}

		record := Applied{
			Sequence:   seq,
			Filename:   f.name,
			AppVersion: appVersion,
			AppliedAt:  appliedAt,
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_history (sequence, filename, app_version, applied_at) VALUES (?, ?, ?, ?)`,
			record.Sequence, record.Filename, record.AppVersion, record.AppliedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record migration: %w", err)
		}

		added = append(added, record)
	}

	return added, nil
}

// verifyHistory checks that every recorded migration still has its file, in
// the same position.
func verifyHistory(history []Applied, files []sqlFile) error {
	if len(history) > len(files) {
		return fmt.Errorf(
			"history has %d migrations but only %d files remain: %w",
			len(history), len(files), ErrHistoryMismatch,
		)
	}

	for i, record := range history {
		if record.Sequence != i {
			return fmt.Errorf("history skips from %d to %d: %w", i, record.Sequence, ErrHistoryMismatch)
		}
		if record.Filename != files[i].name {
			return fmt.Errorf(
				"migration %d ran as %q but the file is now %q: %w",
				i, record.Filename, files[i].name, ErrHistoryMismatch,
			)
		}
	}

	return nil
}

const historyQuery = `SELECT sequence, filename, app_version, applied_at FROM schema_history ORDER BY sequence`

// History returns all migrations recorded in the database, oldest first. It
// returns ErrNoHistory when no migration ever ran.
func History(ctx context.Context, db *sql.DB) ([]Applied, error) {
	return scanHistory(db.QueryContext(ctx, historyQuery))
}

func scanHistory(rows *sql.Rows, err error) ([]Applied, error) {
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, ErrNoHistory
		}
		return nil, fmt.Errorf("failed to query schema history: %w", err)
	}

	defer rows.Close()

	history := make([]Applied, 0)
	for rows.Next() {
		var a Applied
		if err := rows.Scan(&a.Sequence, &a.Filename, &a.AppVersion, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		history = append(history, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return history, nil
}

type sqlFile struct {
	name    string
	content string
}

// readSQLFiles loads the .sql files in the root of fsys, sorted by name.
// Directories and other extensions are ignored.
func readSQLFiles(fsys fs.FS) ([]sqlFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]sqlFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", entry.Name(), err)
		}

		files = append(files, sqlFile{
			name:    entry.Name(),
			content: string(content),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].name < files[j].name
	})

	return files, nil
}
