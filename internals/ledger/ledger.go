// Package ledger keeps a durable audit trail of runs and per-task state
// transitions in sqlite. It mirrors the scheduler's task state machine:
// pending -> running -> succeeded | failed.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		return nil, fmt.Errorf("set synchronous: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun records a new run and one pending row per task.
func (l *Ledger) BeginRun(ctx context.Context, runID string, model string, titles []string, indexes []int) error {
	if len(titles) != len(indexes) {
		return fmt.Errorf("ledger: %d titles for %d indexes", len(titles), len(indexes))
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, model, started_at, tasks_total)
VALUES (?, ?, ?, ?)
`, runID, model, now(), len(titles)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, title := range titles {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO run_tasks (run_id, task_index, title, status)
VALUES (?, ?, ?, ?)
`, runID, indexes[i], title, StatusPending); err != nil {
			return fmt.Errorf("insert run task %d: %w", indexes[i], err)
		}
	}

	return tx.Commit()
}

// TaskRunning marks a task as dispatched to a worker.
func (l *Ledger) TaskRunning(ctx context.Context, runID string, index int) error {
	_, err := l.db.ExecContext(ctx, `
UPDATE run_tasks SET status = ?, started_at = ?
WHERE run_id = ? AND task_index = ?
`, StatusRunning, now(), runID, index)
	if err != nil {
		return fmt.Errorf("mark task running: %w", err)
	}
	return nil
}

// TaskFinished records a task's terminal state. Terminal states never
// transition again within a run.
func (l *Ledger) TaskFinished(ctx context.Context, runID string, index int, success bool, errMsg string, resultPath string) error {
	status := StatusSucceeded
	if !success {
		status = StatusFailed
	}
	_, err := l.db.ExecContext(ctx, `
UPDATE run_tasks SET status = ?, finished_at = ?, error = ?, result_path = ?
WHERE run_id = ? AND task_index = ?
`, status, now(), nullIfEmpty(errMsg), nullIfEmpty(resultPath), runID, index)
	if err != nil {
		return fmt.Errorf("mark task finished: %w", err)
	}
	return nil
}

// FinishRun closes out the run with its success count.
func (l *Ledger) FinishRun(ctx context.Context, runID string, successful int) error {
	_, err := l.db.ExecContext(ctx, `
UPDATE runs SET finished_at = ?, tasks_successful = ?
WHERE id = ?
`, now(), successful, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
