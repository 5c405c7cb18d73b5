package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// IsTerminalStatus reports whether a task status is completed or failed.
// Terminal tasks never change again.
func IsTerminalStatus(status string) bool {
	return status == TaskStatusCompleted || status == TaskStatusFailed
}

// AnalysisTask tracks one analysis request from submission to terminal state.
// The API returns a task_id on POST /api/v1/analyze/{text,file}; the client
// polls GET /api/v1/analyze/{task_id} until status is completed or failed.
//
// Exactly one of Results/ErrorMessage is populated once a task is terminal;
// neither is populated while pending or processing.
type AnalysisTask struct {
	ID           uuid.UUID      `db:"id"            json:"task_id"`
	Status       string         `db:"status"        json:"status"`
	ContentType  string         `db:"content_type"  json:"content_type"`
	AnalyzerKind Kind           `db:"analyzer_kind" json:"analyzer_kind,omitempty"`
	Filename     *string        `db:"filename"      json:"filename,omitempty"`
	Results      ResultPayload  `db:"results"       json:"results,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error,omitempty"`
	Metadata     map[string]any `db:"metadata"      json:"metadata,omitempty"`
	StartedAt    *time.Time     `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
}
