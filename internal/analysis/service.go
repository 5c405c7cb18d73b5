// Package analysis orchestrates the content analysis pipeline: resolve the
// content type, pick an analyzer, track the task through its lifecycle.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/internal/analyzer"
	"github.com/sandeepmv/contentiq/internal/cache"
	"github.com/sandeepmv/contentiq/internal/storage"
	"github.com/sandeepmv/contentiq/internal/taskstore"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// ErrEmptyContent is returned when a submission carries no analyzable content.
// No task is created in that case.
var ErrEmptyContent = errors.New("content must not be empty")

// statusCacheTTL bounds how long a task's status lives in the cache. The
// store stays authoritative; the cache only absorbs polling reads.
const statusCacheTTL = 30 * time.Minute

// Service drives analysis tasks from submission to a terminal state.
// Pipeline failures after task creation never escape as errors; they are
// recorded on the task and the task is returned.
type Service struct {
	registry *analyzer.Registry
	store    taskstore.Store
	cache    cache.Cache
	files    storage.FileStore
	timeout  time.Duration
}

// NewService creates a new Service. files may be nil when upload archival
// is not configured.
func NewService(reg *analyzer.Registry, st taskstore.Store, ca cache.Cache, files storage.FileStore, timeout time.Duration) *Service {
	return &Service{
		registry: reg,
		store:    st,
		cache:    ca,
		files:    files,
		timeout:  timeout,
	}
}

// SubmitText analyzes raw text synchronously and returns the terminal task.
// Empty or whitespace-only text is rejected with ErrEmptyContent before any
// task exists.
func (s *Service) SubmitText(ctx context.Context, text string, opts models.Options) (*models.AnalysisTask, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	task, err := s.createTask(ctx, "text/plain", models.KindText, nil, len(text))
	if err != nil {
		return nil, err
	}

	az, err := s.registry.Get(models.KindText)
	if err != nil {
		return s.failTask(ctx, task.ID, err.Error()), nil
	}

	started, err := s.store.UpdateTaskStatus(ctx, task.ID, models.TaskStatusProcessing)
	if err != nil {
		// The task exists, so the failure is recorded on it rather than
		// surfaced as a submission error.
		slog.Error("starting task", "task_id", task.ID, "error", err)
		return s.failTask(ctx, task.ID, "internal error: could not start analysis"), nil
	}
	_ = s.cache.SetTaskStatus(ctx, started.ID, models.TaskStatusProcessing, statusCacheTTL)

	return s.analyze(ctx, started.ID, az, []byte(text), opts), nil
}

// SubmitFile creates a task for uploaded content and dispatches analysis in a
// background goroutine. By the time it returns, the task is in the processing
// state, or failed when no analyzer could be matched to the upload.
func (s *Service) SubmitFile(ctx context.Context, filename, contentType string, content []byte, opts models.Options) (*models.AnalysisTask, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	kind, resolvedType, resolveErr := analyzer.Resolve(contentType, filename)

	task, err := s.createTask(ctx, resolvedType, kind, &filename, len(content))
	if err != nil {
		return nil, err
	}

	if resolveErr != nil {
		return s.failTask(ctx, task.ID, resolveErr.Error()), nil
	}

	az, err := s.registry.Get(kind)
	if err != nil {
		return s.failTask(ctx, task.ID, err.Error()), nil
	}

	var updates []taskstore.UpdateOption
	if url := s.archive(ctx, task.ID, filename, resolvedType, content); url != "" {
		updates = append(updates, taskstore.WithMetadata(map[string]any{"archive_url": url}))
	}

	started, err := s.store.UpdateTaskStatus(ctx, task.ID, models.TaskStatusProcessing, updates...)
	if err != nil {
		slog.Error("starting task", "task_id", task.ID, "error", err)
		return s.failTask(ctx, task.ID, "internal error: could not start analysis"), nil
	}
	_ = s.cache.SetTaskStatus(ctx, started.ID, models.TaskStatusProcessing, statusCacheTTL)

	go s.runAnalysis(started.ID, az, content, opts)

	return started, nil
}

// GetStatus returns the current task record. ErrTaskNotFound passes through
// from the store for unknown ids.
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (*models.AnalysisTask, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetTaskStatus(ctx, task.ID, task.Status, statusCacheTTL)
	return task, nil
}

// Capabilities reports every registered analyzer kind, including disabled ones.
func (s *Service) Capabilities() map[models.Kind]models.Capabilities {
	return s.registry.Capabilities()
}

func (s *Service) createTask(ctx context.Context, contentType string, kind models.Kind, filename *string, sizeBytes int) (*models.AnalysisTask, error) {
	now := time.Now().UTC()
	task := &models.AnalysisTask{
		ID:           uuid.New(),
		Status:       models.TaskStatusPending,
		ContentType:  contentType,
		AnalyzerKind: kind,
		Filename:     filename,
		Metadata:     map[string]any{"size_bytes": sizeBytes},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	_ = s.cache.SetTaskStatus(ctx, task.ID, models.TaskStatusPending, statusCacheTTL)
	return task, nil
}

// runAnalysis performs file analysis in a goroutine. It recovers from panics
// and always drives the task to a terminal state.
func (s *Service) runAnalysis(taskID uuid.UUID, az models.Analyzer, content []byte, opts models.Options) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in analysis", "error", r, "task_id", taskID)
			s.failTask(ctx, taskID, fmt.Sprintf("panic: %v", r))
		}
	}()

	s.analyze(ctx, taskID, az, content, opts)
}

// analyze runs the analyzer under the configured timeout and records the
// terminal state. It returns the updated task, or the last known record when
// the final store update itself fails.
func (s *Service) analyze(ctx context.Context, taskID uuid.UUID, az models.Analyzer, content []byte, opts models.Options) *models.AnalysisTask {
	analysisCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := az.Analyze(analysisCtx, content, opts)
	if err != nil {
		slog.Warn("analysis failed", "task_id", taskID, "kind", az.Kind(), "error", err)
		return s.failTask(ctx, taskID, err.Error())
	}

	caps := az.Capabilities()
	task, err := s.store.UpdateTaskStatus(ctx, taskID, models.TaskStatusCompleted,
		taskstore.WithResults(results),
		taskstore.WithMetadata(map[string]any{
			"analyzer": string(az.Kind()),
			"model":    caps.Model,
		}))
	if err != nil {
		slog.Error("recording analysis result", "task_id", taskID, "error", err)
		return s.lastKnown(ctx, taskID)
	}
	_ = s.cache.SetTaskStatus(ctx, taskID, models.TaskStatusCompleted, statusCacheTTL)
	return task
}

// failTask marks the task failed and returns the updated record. Store errors
// are logged, not propagated; the last known record is returned instead.
func (s *Service) failTask(ctx context.Context, taskID uuid.UUID, msg string) *models.AnalysisTask {
	task, err := s.store.UpdateTaskStatus(ctx, taskID, models.TaskStatusFailed,
		taskstore.WithErrorMessage(msg))
	if err != nil {
		slog.Error("marking task failed", "task_id", taskID, "error", err)
		return s.lastKnown(ctx, taskID)
	}
	_ = s.cache.SetTaskStatus(ctx, taskID, models.TaskStatusFailed, statusCacheTTL)
	return task
}

func (s *Service) lastKnown(ctx context.Context, taskID uuid.UUID) *models.AnalysisTask {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return &models.AnalysisTask{ID: taskID, Status: models.TaskStatusFailed}
	}
	return task
}

// archive uploads the original content to the file store when one is
// configured, returning the object URL. Failures are logged and never
// affect the task.
func (s *Service) archive(ctx context.Context, taskID uuid.UUID, filename, contentType string, content []byte) string {
	if s.files == nil {
		return ""
	}
	key := fmt.Sprintf("uploads/%s/%s", taskID, filename)
	url, err := s.files.Put(ctx, key, content, contentType)
	if err != nil {
		slog.Warn("archiving upload", "task_id", taskID, "error", err)
		return ""
	}
	return url
}
