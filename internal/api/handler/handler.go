// Package handler holds the HTTP handlers for the analysis API.
package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// Orchestrator defines the interface the handlers depend on.
type Orchestrator interface {
	SubmitText(ctx context.Context, text string, opts models.Options) (*models.AnalysisTask, error)
	SubmitFile(ctx context.Context, filename, contentType string, content []byte, opts models.Options) (*models.AnalysisTask, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*models.AnalysisTask, error)
	Capabilities() map[models.Kind]models.Capabilities
}
