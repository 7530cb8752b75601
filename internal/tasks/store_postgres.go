package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists one self-describing JSON document per task, keyed
// by id. The document is the full Task record; schema migrations are a
// single CREATE TABLE IF NOT EXISTS at startup.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initTaskSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initTaskSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks ((doc->>'created_at'));`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init task schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveTask(ctx context.Context, task Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tasks (id, doc) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET doc=EXCLUDED.doc`,
		task.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM tasks WHERE id=$1`, taskID).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Task{}, ErrStoreNotFound
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	var task Task
	if err := json.Unmarshal(doc, &task); err != nil {
		return Task{}, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return task, nil
}

// decodeTaskRow decodes one persisted document. A document that fails to
// decode is logged and reported unusable rather than surfaced as an error,
// so one corrupt row never aborts a whole listing.
func decodeTaskRow(id string, doc []byte) (Task, bool) {
	var task Task
	if err := json.Unmarshal(doc, &task); err != nil {
		log.Printf("tasks: skipping malformed record %s: %v", id, err)
		return Task{}, false
	}
	return task, true
}

// ListTasks returns every persisted record, skipping malformed documents.
func (s *PostgresStore) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, doc FROM tasks ORDER BY doc->>'created_at' DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0, 16)
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		task, ok := decodeTaskRow(id, doc)
		if !ok {
			continue
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}
	return out, nil
}

// UpdateTask loads the current document, merges the supplied fields over it
// and writes it back inside one transaction. The row lock keeps two writers
// in the same process from interleaving; cross-process writers still race
// (accepted for a single-operator deployment).
func (s *PostgresStore) UpdateTask(ctx context.Context, taskID string, fields Update) (Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT doc FROM tasks WHERE id=$1 FOR UPDATE`, taskID).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Task{}, ErrStoreNotFound
		}
		return Task{}, fmt.Errorf("get task for update: %w", err)
	}
	var task Task
	if err := json.Unmarshal(doc, &task); err != nil {
		return Task{}, fmt.Errorf("decode task %s: %w", taskID, err)
	}

	merged := fields.Apply(task, time.Now().UTC())
	out, err := json.Marshal(merged)
	if err != nil {
		return Task{}, fmt.Errorf("marshal task: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE tasks SET doc=$2 WHERE id=$1`, taskID, out); err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Task{}, fmt.Errorf("commit tx: %w", err)
	}
	return merged, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
