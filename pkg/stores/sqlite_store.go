package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters. The
	// modernc driver takes pragmas as _pragma=name(value) pairs applied
	// to every pooled connection.
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection and set PRAGMAs
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateExecution creates a new execution record
func (s *SQLiteStore) CreateExecution(ctx context.Context, exec *Execution) error {
	query := `
		INSERT INTO executions (
			id, workflow_id, fingerprint, phase, status, summary, output,
			duration_ms, started_at, completed_at, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		exec.ID,
		exec.WorkflowID,
		exec.Fingerprint,
		exec.Phase,
		exec.Status,
		exec.Summary,
		exec.Output,
		exec.DurationMS,
		exec.StartedAt,
		exec.CompletedAt,
		exec.Error,
		exec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

// GetExecution retrieves an execution by ID
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*Execution, error) {
	query := `
		SELECT id, workflow_id, fingerprint, phase, status, summary, output,
			   duration_ms, started_at, completed_at, error, created_at
		FROM executions
		WHERE id = ?
	`

	exec := &Execution{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&exec.ID,
		&exec.WorkflowID,
		&exec.Fingerprint,
		&exec.Phase,
		&exec.Status,
		&exec.Summary,
		&exec.Output,
		&exec.DurationMS,
		&exec.StartedAt,
		&exec.CompletedAt,
		&exec.Error,
		&exec.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return exec, nil
}

// ListExecutions lists executions with optional workflow filter and pagination
func (s *SQLiteStore) ListExecutions(ctx context.Context, workflowID *string, limit, offset int) ([]*Execution, error) {
	query := `
		SELECT id, workflow_id, fingerprint, phase, status, summary, output,
			   duration_ms, started_at, completed_at, error, created_at
		FROM executions
		WHERE (? IS NULL OR workflow_id = ?)
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, workflowID, workflowID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	execs := []*Execution{}
	for rows.Next() {
		exec := &Execution{}
		err := rows.Scan(
			&exec.ID,
			&exec.WorkflowID,
			&exec.Fingerprint,
			&exec.Phase,
			&exec.Status,
			&exec.Summary,
			&exec.Output,
			&exec.DurationMS,
			&exec.StartedAt,
			&exec.CompletedAt,
			&exec.Error,
			&exec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		execs = append(execs, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return execs, nil
}

// DeleteExecution deletes an execution by ID
func (s *SQLiteStore) DeleteExecution(ctx context.Context, id string) error {
	query := `DELETE FROM executions WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete execution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("execution not found: %s", id)
	}

	return nil
}

// PruneExecutionsBefore deletes all executions started before the cutoff
func (s *SQLiteStore) PruneExecutionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM executions WHERE started_at < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune executions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// AppendEngineResult appends an engine result to an execution
func (s *SQLiteStore) AppendEngineResult(ctx context.Context, result *EngineResult) error {
	query := `
		INSERT INTO engine_results (execution_id, engine_id, status, cached, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		result.ExecutionID,
		result.EngineID,
		result.Status,
		result.Cached,
		result.DurationMS,
		result.Error,
		result.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append engine result: %w", err)
	}

	// Get the auto-generated ID
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get engine result ID: %w", err)
	}

	result.ID = id
	return nil
}

// ListEngineResultsByExecution lists all engine results for an execution
func (s *SQLiteStore) ListEngineResultsByExecution(ctx context.Context, executionID string) ([]*EngineResult, error) {
	query := `
		SELECT id, execution_id, engine_id, status, cached, duration_ms, error, created_at
		FROM engine_results
		WHERE execution_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list engine results: %w", err)
	}
	defer rows.Close()

	results := []*EngineResult{}
	for rows.Next() {
		result := &EngineResult{}
		err := rows.Scan(
			&result.ID,
			&result.ExecutionID,
			&result.EngineID,
			&result.Status,
			&result.Cached,
			&result.DurationMS,
			&result.Error,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan engine result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engine results: %w", err)
	}

	return results, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
