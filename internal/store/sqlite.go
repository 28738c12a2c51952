package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/privhq/dsarkit/internal/dsar"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is the durable RunStore. The run document is the source of truth
// for Get; the audit_log table mirrors the trail as insert-only rows so the
// append order survives independent of the document.
type SQLite struct {
	db    *sql.DB
	locks *keyedLocks
}

// Open creates or opens a SQLite database at the given path (":memory:" for
// an ephemeral store). Applies pragmas and the embedded schema; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//   - foreign key enforcement
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, locks: newKeyedLocks()}, nil
}

// Create implements RunStore.
func (s *SQLite) Create(ctx context.Context, run *dsar.Run) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.RequestID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (request_id, subject_email, state, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING
	`, run.RequestID, run.SubjectEmail, string(run.State), string(doc))
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.RequestID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	if err := s.appendAudit(ctx, run.RequestID, 0, run.AuditLog); err != nil {
		return err
	}
	return nil
}

// Get implements RunStore.
func (s *SQLite) Get(ctx context.Context, id string) (*dsar.Run, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM runs WHERE request_id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	var run dsar.Run
	if err := json.Unmarshal([]byte(doc), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// Update implements RunStore. New audit entries are inserted as rows; the
// existing prefix is never touched.
func (s *SQLite) Update(ctx context.Context, id string, fn func(*dsar.Run) error) (*dsar.Run, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	working := cloneRun(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	added, err := auditExtended(stored.AuditLog, working.AuditLog)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(working)
	if err != nil {
		return nil, fmt.Errorf("marshal run %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update run %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE runs
		SET subject_email = ?, state = ?, doc = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE request_id = ?
	`, working.SubjectEmail, string(working.State), string(doc), id); err != nil {
		return nil, fmt.Errorf("update run %s: %w", id, err)
	}

	base := len(stored.AuditLog)
	for i, entry := range added {
		detail, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("marshal audit entry %s/%d: %w", id, base+i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (request_id, seq, step, detail)
			VALUES (?, ?, ?, ?)
		`, id, base+i, entry.Step, string(detail)); err != nil {
			return nil, fmt.Errorf("append audit %s/%d: %w", id, base+i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run %s: %w", id, err)
	}
	return working, nil
}

// List implements RunStore.
func (s *SQLite) List(ctx context.Context) ([]*dsar.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM runs ORDER BY created_at, request_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*dsar.Run
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		var run dsar.Run
		if err := json.Unmarshal([]byte(doc), &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// AuditTrail reads the audit rows for a run in append order, independently
// of the run document. Used for verification and the status command.
func (s *SQLite) AuditTrail(ctx context.Context, id string) ([]dsar.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT detail FROM audit_log WHERE request_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("audit trail %s: %w", id, err)
	}
	defer rows.Close()

	var entries []dsar.AuditEntry
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("audit trail %s: %w", id, err)
		}
		var entry dsar.AuditEntry
		if err := json.Unmarshal([]byte(detail), &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLite) appendAudit(ctx context.Context, id string, base int, entries []dsar.AuditEntry) error {
	for i, entry := range entries {
		detail, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal audit entry %s/%d: %w", id, base+i, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO audit_log (request_id, seq, step, detail)
			VALUES (?, ?, ?, ?)
		`, id, base+i, entry.Step, string(detail)); err != nil {
			return fmt.Errorf("append audit %s/%d: %w", id, base+i, err)
		}
	}
	return nil
}

// Close implements RunStore.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
