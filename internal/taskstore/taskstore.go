// Package taskstore owns analysis task records for their lifetime. The
// orchestrator is the only writer; the API layer reads via task id.
package taskstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/pkg/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition is returned for any backward or terminal-escaping
	// status transition. Transitions are monotonic: pending → processing →
	// {completed, failed}, plus pending → failed for pre-dispatch failures.
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// Store is the task persistence interface. Implementations must support
// concurrent insert/update/read; updates to distinct tasks never interfere.
type Store interface {
	Ping(ctx context.Context) error
	CreateTask(ctx context.Context, task *models.AnalysisTask) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.AnalysisTask, error)
	// UpdateTaskStatus transitions a task and returns the updated record.
	// Moving to completed requires WithResults; moving to failed requires
	// WithErrorMessage. The store enforces that a terminal task carries
	// exactly one of the two.
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string, opts ...UpdateOption) (*models.AnalysisTask, error)
}

type updateParams struct {
	Results      models.ResultPayload
	ErrorMessage *string
	Metadata     map[string]any
}

type UpdateOption func(*updateParams)

func WithResults(results models.ResultPayload) UpdateOption {
	return func(p *updateParams) {
		p.Results = results
	}
}

func WithErrorMessage(msg string) UpdateOption {
	return func(p *updateParams) {
		p.ErrorMessage = &msg
	}
}

// WithMetadata merges the given keys into the task's metadata map.
func WithMetadata(md map[string]any) UpdateOption {
	return func(p *updateParams) {
		p.Metadata = md
	}
}

// validTransition is the closed set of allowed status moves.
func validTransition(from, to string) bool {
	switch from {
	case models.TaskStatusPending:
		return to == models.TaskStatusProcessing || to == models.TaskStatusFailed
	case models.TaskStatusProcessing:
		return to == models.TaskStatusCompleted || to == models.TaskStatusFailed
	default:
		return false
	}
}
