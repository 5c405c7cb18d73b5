// Package models contains shared data models used across the ContentIQ codebase.
package models

import (
	"context"
	"errors"
)

// ErrAnalysisFailed classifies analyzer-internal processing errors, as
// opposed to unsupported content or an unavailable analyzer. Every analyzer
// wraps its failures with this sentinel so callers can errors.Is against it.
var ErrAnalysisFailed = errors.New("analysis failed")

// Kind identifies which analyzer handles a piece of content.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Kinds returns every analyzer kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindText, KindAudio, KindVideo}
}

// ResultPayload is the structured, analyzer-specific output of a successful analysis.
type ResultPayload map[string]any

// Options carries per-request analysis flags. Keys an analyzer does not
// recognize are ignored, never treated as errors.
type Options map[string]any

// Bool reads a boolean option, falling back to def when the key is absent
// or holds a non-boolean value.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Capabilities describes what an analyzer supports. It is computed once at
// analyzer construction and read-only afterwards.
type Capabilities struct {
	Kind               Kind     `json:"kind"`
	ContentTypes       []string `json:"content_types"`
	Features           []string `json:"features"`
	Available          bool     `json:"available"`
	Model              string   `json:"model"`
	MaxDurationSeconds float64  `json:"max_duration_seconds,omitempty"`
}

// Analyzer is the core interface every content analyzer implements.
// Implementations hold no per-call state and must be safe for concurrent use.
type Analyzer interface {
	// Analyze transforms content plus options into a structured result.
	// It returns either a fully populated payload or an error, never both.
	Analyze(ctx context.Context, content []byte, opts Options) (ResultPayload, error)
	// Capabilities returns the analyzer's static capability descriptor.
	Capabilities() Capabilities
	// Kind returns the analyzer kind (e.g., "text", "audio").
	Kind() Kind
}
