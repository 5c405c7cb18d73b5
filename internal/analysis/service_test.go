package analysis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/internal/analysis"
	"github.com/sandeepmv/contentiq/internal/analyzer"
	"github.com/sandeepmv/contentiq/internal/config"
	"github.com/sandeepmv/contentiq/internal/taskstore"
	"github.com/sandeepmv/contentiq/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopCache satisfies cache.Cache without a Redis backend.
type noopCache struct{}

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (noopCache) Delete(context.Context, string) error                     { return nil }
func (noopCache) Ping(context.Context) error                               { return nil }
func (noopCache) SetTaskStatus(context.Context, uuid.UUID, string, time.Duration) error {
	return nil
}
func (noopCache) GetTaskStatus(context.Context, uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (noopCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

// recordingFileStore captures archived uploads.
type recordingFileStore struct {
	mu   sync.Mutex
	keys []string
}

func (f *recordingFileStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "http://files.local/" + key, nil
}

func newService(t *testing.T, cfg config.AnalyzersConfig) (*analysis.Service, taskstore.Store) {
	t.Helper()
	st := taskstore.NewMemoryStore()
	svc := analysis.NewService(analyzer.NewRegistry(cfg), st, noopCache{}, nil, 30*time.Second)
	return svc, st
}

func allEnabled() config.AnalyzersConfig {
	return config.AnalyzersConfig{
		AudioEnabled:            true,
		VideoEnabled:            true,
		MaxMediaDurationSeconds: 600,
	}
}

// waitTerminal polls until the task reaches a terminal status.
func waitTerminal(t *testing.T, svc *analysis.Service, id uuid.UUID) *models.AnalysisTask {
	t.Helper()
	var task *models.AnalysisTask
	require.Eventually(t, func() bool {
		var err error
		task, err = svc.GetStatus(context.Background(), id)
		require.NoError(t, err)
		return models.IsTerminalStatus(task.Status)
	}, 5*time.Second, 10*time.Millisecond)
	return task
}

func TestSubmitText_CompletesInline(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	task, err := svc.SubmitText(context.Background(), "The quick brown fox jumps over the lazy dog. It was a great day.", nil)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, models.KindText, task.AnalyzerKind)
	assert.Equal(t, "text/plain", task.ContentType)
	assert.Nil(t, task.ErrorMessage)
	require.NotNil(t, task.Results)
	assert.EqualValues(t, 14, task.Results["word_count"])
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, "heuristic-v1", task.Metadata["model"])
}

func TestSubmitText_Empty(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	for _, text := range []string{"", "   ", "\n\t "} {
		task, err := svc.SubmitText(context.Background(), text, nil)
		assert.ErrorIs(t, err, analysis.ErrEmptyContent)
		assert.Nil(t, task)
	}
}

func TestSubmitFile_TextFile(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	task, err := svc.SubmitFile(context.Background(), "notes.txt", "text/plain",
		[]byte("Hello world. This is a small file."), nil)
	require.NoError(t, err)

	// By the time SubmitFile returns the task must have left pending.
	assert.NotEqual(t, models.TaskStatusPending, task.Status)
	require.NotNil(t, task.Filename)
	assert.Equal(t, "notes.txt", *task.Filename)

	final := waitTerminal(t, svc, task.ID)
	assert.Equal(t, models.TaskStatusCompleted, final.Status)
	assert.NotNil(t, final.Results)
	assert.Nil(t, final.ErrorMessage)
}

func TestSubmitFile_Empty(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	task, err := svc.SubmitFile(context.Background(), "empty.txt", "text/plain", nil, nil)
	assert.ErrorIs(t, err, analysis.ErrEmptyContent)
	assert.Nil(t, task)
}

func TestSubmitFile_UnsupportedType_FailsTask(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	task, err := svc.SubmitFile(context.Background(), "data.xyz", "application/x-unknown",
		[]byte{0x01, 0x02}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "unsupported content type")
	assert.Nil(t, task.Results)
}

func TestSubmitFile_DisabledAnalyzer_FailsTask(t *testing.T) {
	cfg := allEnabled()
	cfg.AudioEnabled = false
	svc, _ := newService(t, cfg)

	task, err := svc.SubmitFile(context.Background(), "clip.wav", "audio/wav",
		[]byte("RIFF....WAVE"), nil)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "analyzer unavailable")
}

func TestSubmitFile_CorruptMedia_FailsTask(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	task, err := svc.SubmitFile(context.Background(), "clip.wav", "audio/wav",
		[]byte("not a riff file at all"), nil)
	require.NoError(t, err)

	final := waitTerminal(t, svc, task.ID)
	assert.Equal(t, models.TaskStatusFailed, final.Status)
	require.NotNil(t, final.ErrorMessage)
	assert.Contains(t, *final.ErrorMessage, models.ErrAnalysisFailed.Error())
	assert.Nil(t, final.Results)
}

// startFailStore rejects the transition into processing while letting every
// other store operation through.
type startFailStore struct {
	taskstore.Store
}

func (s *startFailStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string, opts ...taskstore.UpdateOption) (*models.AnalysisTask, error) {
	if status == models.TaskStatusProcessing {
		return nil, errors.New("connection reset")
	}
	return s.Store.UpdateTaskStatus(ctx, id, status, opts...)
}

func TestSubmitText_StartFailure_FailsTask(t *testing.T) {
	st := &startFailStore{Store: taskstore.NewMemoryStore()}
	svc := analysis.NewService(analyzer.NewRegistry(allEnabled()), st, noopCache{}, nil, 30*time.Second)

	task, err := svc.SubmitText(context.Background(), "still analyzable text", nil)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "could not start analysis")
}

func TestSubmitFile_StartFailure_FailsTask(t *testing.T) {
	st := &startFailStore{Store: taskstore.NewMemoryStore()}
	svc := analysis.NewService(analyzer.NewRegistry(allEnabled()), st, noopCache{}, nil, 30*time.Second)

	task, err := svc.SubmitFile(context.Background(), "notes.txt", "text/plain",
		[]byte("file content"), nil)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "could not start analysis")
}

func TestSubmitFile_ArchivesUpload(t *testing.T) {
	st := taskstore.NewMemoryStore()
	files := &recordingFileStore{}
	svc := analysis.NewService(analyzer.NewRegistry(allEnabled()), st, noopCache{}, files, 30*time.Second)

	task, err := svc.SubmitFile(context.Background(), "notes.txt", "text/plain",
		[]byte("archived content"), nil)
	require.NoError(t, err)

	require.Len(t, files.keys, 1)
	assert.Equal(t, "uploads/"+task.ID.String()+"/notes.txt", files.keys[0])
	assert.Equal(t, "http://files.local/"+files.keys[0], task.Metadata["archive_url"])
}

func TestGetStatus_NotFound(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	_, err := svc.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, taskstore.ErrTaskNotFound)
}

func TestCapabilities_IncludesDisabledKinds(t *testing.T) {
	cfg := allEnabled()
	cfg.VideoEnabled = false
	svc, _ := newService(t, cfg)

	caps := svc.Capabilities()
	require.Len(t, caps, 3)
	assert.True(t, caps[models.KindText].Available)
	assert.True(t, caps[models.KindAudio].Available)
	assert.False(t, caps[models.KindVideo].Available)
}

func TestSubmitText_Concurrent(t *testing.T) {
	svc, _ := newService(t, allEnabled())

	const n = 20
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, err := svc.SubmitText(context.Background(), "Concurrent submission text body.", nil)
			assert.NoError(t, err)
			if task != nil {
				ids[i] = task.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uuid.UUID]bool, n)
	for _, id := range ids {
		require.NotEqual(t, uuid.Nil, id)
		assert.False(t, seen[id], "task ids must be unique")
		seen[id] = true

		task, err := svc.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusCompleted, task.Status)
	}
}
