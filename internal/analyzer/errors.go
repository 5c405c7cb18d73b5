package analyzer

import "errors"

var (
	// ErrUnsupportedContentType means no analyzer kind could be resolved for
	// the submitted MIME type or filename.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrAnalyzerUnavailable means the analyzer for a kind is disabled or its
	// backing dependency failed to initialize. This is a configuration
	// problem, not a content problem.
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")
)
