package taskstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// MemoryStore is the default process-scoped Store. It holds tasks in a
// mutex-guarded map and hands out copies, so callers never alias the
// store-owned record. No persistence across restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*models.AnalysisTask
}

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[uuid.UUID]*models.AnalysisTask)}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateTask(_ context.Context, task *models.AnalysisTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, id uuid.UUID) (*models.AnalysisTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (s *MemoryStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status string, opts ...UpdateOption) (*models.AnalysisTask, error) {
	var params updateParams
	for _, opt := range opts {
		opt(&params)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if !validTransition(task.Status, status) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, task.Status, status)
	}

	now := time.Now().UTC()
	task.Status = status
	task.UpdatedAt = now

	switch status {
	case models.TaskStatusProcessing:
		task.StartedAt = &now
	case models.TaskStatusCompleted:
		task.CompletedAt = &now
		task.Results = params.Results
		task.ErrorMessage = nil
	case models.TaskStatusFailed:
		task.CompletedAt = &now
		task.ErrorMessage = params.ErrorMessage
		task.Results = nil
	}

	if params.Metadata != nil {
		if task.Metadata == nil {
			task.Metadata = make(map[string]any, len(params.Metadata))
		}
		for k, v := range params.Metadata {
			task.Metadata[k] = v
		}
	}

	return cloneTask(task), nil
}

func cloneTask(t *models.AnalysisTask) *models.AnalysisTask {
	c := *t
	if t.Results != nil {
		c.Results = make(models.ResultPayload, len(t.Results))
		for k, v := range t.Results {
			c.Results[k] = v
		}
	}
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
