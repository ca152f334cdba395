package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS threads (
			thread_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			turn_id TEXT NOT NULL UNIQUE,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (thread_id) REFERENCES threads(thread_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_thread ON turns(thread_id, seq)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			assistant_id TEXT NOT NULL,
			status TEXT NOT NULL,
			last_error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (thread_id) REFERENCES threads(thread_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_thread ON runs(thread_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateThread creates a new thread.
func (s *SQLiteStore) CreateThread(ctx context.Context, thread *domain.Thread) error {
	metadata, _ := json.Marshal(thread.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (thread_id, created_at, metadata) VALUES (?, ?, ?)`,
		thread.ThreadID, thread.CreatedAt, string(metadata))
	return err
}

// GetThread retrieves a thread by ID. It returns nil when the thread does not exist.
func (s *SQLiteStore) GetThread(ctx context.Context, threadID string) (*domain.Thread, error) {
	var thread domain.Thread
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id, created_at, metadata FROM threads WHERE thread_id = ?`,
		threadID).Scan(&thread.ThreadID, &thread.CreatedAt, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &thread.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode thread metadata: %w", err)
		}
	}
	return &thread, nil
}

// storedBlock is the persisted shape of a content block.
type storedBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func encodeContent(blocks []domain.ContentBlock) (string, error) {
	stored := make([]storedBlock, 0, len(blocks))
	for _, block := range blocks {
		switch b := block.(type) {
		case domain.TextBlock:
			stored = append(stored, storedBlock{Type: "text", Text: b.Value})
		case domain.OtherBlock:
			stored = append(stored, storedBlock{Type: b.Kind})
		}
	}
	data, err := json.Marshal(stored)
	return string(data), err
}

func decodeContent(data string) ([]domain.ContentBlock, error) {
	var stored []storedBlock
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, err
	}
	blocks := make([]domain.ContentBlock, 0, len(stored))
	for _, b := range stored {
		if b.Type == "text" {
			blocks = append(blocks, domain.TextBlock{Value: b.Text})
			continue
		}
		blocks = append(blocks, domain.OtherBlock{Kind: b.Type})
	}
	return blocks, nil
}

// CreateTurn appends a turn to its thread.
func (s *SQLiteStore) CreateTurn(ctx context.Context, turn *domain.Turn) error {
	content, err := encodeContent(turn.Content)
	if err != nil {
		return fmt.Errorf("failed to encode content: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, thread_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		turn.TurnID, turn.ThreadID, string(turn.Role), content, turn.CreatedAt)
	return err
}

// ListTurns returns up to limit turns of a thread in insertion order or its reverse.
func (s *SQLiteStore) ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error) {
	direction := "ASC"
	if order == domain.OrderDesc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT turn_id, thread_id, role, content, created_at FROM turns WHERE thread_id = ? ORDER BY seq %s`, direction)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var (
			turn    domain.Turn
			role    string
			content string
		)
		if err := rows.Scan(&turn.TurnID, &turn.ThreadID, &role, &content, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turn.Role = domain.Role(role)
		if turn.Content, err = decodeContent(content); err != nil {
			return nil, fmt.Errorf("failed to decode turn %s: %w", turn.TurnID, err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// CreateRun creates a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, thread_id, assistant_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.ThreadID, run.AssistantID, string(run.Status), run.CreatedAt)
	return err
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var (
		run       domain.Run
		status    string
		lastError sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, thread_id, assistant_id, status, last_error, created_at FROM runs WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.ThreadID, &run.AssistantID, &status, &lastError, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	run.LastError = lastError.String
	return &run, nil
}

// UpdateRunStatus updates a run's status.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, lastError string) error {
	var errValue interface{}
	if lastError != "" {
		errValue = lastError
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, last_error = ? WHERE run_id = ?`,
		string(status), errValue, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
