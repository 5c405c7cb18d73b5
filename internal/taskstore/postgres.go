package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// PostgresStore implements Store using pgx/v5. Transition legality is
// checked inside a row-locking transaction, so concurrent updaters of the
// same task serialize rather than race.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const taskColumns = `id, status, content_type, analyzer_kind, filename, results, error_message, metadata, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.AnalysisTask) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.Status, task.ContentType, task.AnalyzerKind, task.Filename,
		task.Results, task.ErrorMessage, metadataOrEmpty(task.Metadata),
		task.StartedAt, task.CompletedAt, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*models.AnalysisTask, error) {
	task, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM analysis_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string, opts ...UpdateOption) (*models.AnalysisTask, error) {
	var params updateParams
	for _, opt := range opts {
		opt(&params)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx,
		`SELECT status FROM analysis_tasks WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock task: %w", err)
	}
	if !validTransition(current, status) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, status)
	}

	now := time.Now().UTC()
	var (
		startedAt   any
		completedAt any
		results     models.ResultPayload
		errMsg      *string
	)
	switch status {
	case models.TaskStatusProcessing:
		startedAt = now
	case models.TaskStatusCompleted:
		completedAt = now
		results = params.Results
	case models.TaskStatusFailed:
		completedAt = now
		errMsg = params.ErrorMessage
	}

	task, err := scanTask(tx.QueryRow(ctx,
		`UPDATE analysis_tasks SET
		   status = $2,
		   results = $3,
		   error_message = $4,
		   metadata = metadata || $5,
		   started_at = COALESCE($6, started_at),
		   completed_at = COALESCE($7, completed_at),
		   updated_at = $8
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id, status, results, errMsg, metadataOrEmpty(params.Metadata), startedAt, completedAt, now))
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return task, nil
}

func metadataOrEmpty(md map[string]any) map[string]any {
	if md == nil {
		return map[string]any{}
	}
	return md
}

func scanTask(row pgx.Row) (*models.AnalysisTask, error) {
	var t models.AnalysisTask
	err := row.Scan(&t.ID, &t.Status, &t.ContentType, &t.AnalyzerKind, &t.Filename,
		&t.Results, &t.ErrorMessage, &t.Metadata, &t.StartedAt, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
