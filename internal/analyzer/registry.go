package analyzer

import (
	"fmt"

	"github.com/sandeepmv/contentiq/internal/analyzer/audio"
	"github.com/sandeepmv/contentiq/internal/analyzer/text"
	"github.com/sandeepmv/contentiq/internal/analyzer/video"
	"github.com/sandeepmv/contentiq/internal/config"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// Registry holds exactly one analyzer instance per kind, constructed once at
// server startup. Analyzer construction may be expensive, so instances are
// shared across all requests.
type Registry struct {
	analyzers map[models.Kind]models.Analyzer
	caps      map[models.Kind]models.Capabilities
}

// NewRegistry builds the full analyzer set from config. Disabled kinds still
// appear in the capability map, marked unavailable, so discovery reflects the
// deployment rather than hiding the kind.
func NewRegistry(cfg config.AnalyzersConfig) *Registry {
	r := &Registry{
		analyzers: make(map[models.Kind]models.Analyzer),
		caps:      make(map[models.Kind]models.Capabilities),
	}

	r.register(text.New(), true)
	r.register(audio.New(cfg.MaxMediaDurationSeconds), cfg.AudioEnabled)
	r.register(video.New(cfg.MaxMediaDurationSeconds), cfg.VideoEnabled)

	return r
}

func (r *Registry) register(a models.Analyzer, available bool) {
	caps := a.Capabilities()
	caps.Available = available
	r.caps[a.Kind()] = caps
	if available {
		r.analyzers[a.Kind()] = a
	}
}

// Get returns the analyzer for a kind, or ErrAnalyzerUnavailable when the
// kind is unknown or its analyzer is disabled.
func (r *Registry) Get(kind models.Kind) (models.Analyzer, error) {
	a, ok := r.analyzers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerUnavailable, kind)
	}
	return a, nil
}

// CapabilitiesOf returns the capability descriptor for one kind.
func (r *Registry) CapabilitiesOf(kind models.Kind) (models.Capabilities, error) {
	caps, ok := r.caps[kind]
	if !ok {
		return models.Capabilities{}, fmt.Errorf("%w: %s", ErrAnalyzerUnavailable, kind)
	}
	return caps, nil
}

// Capabilities returns the kind → capabilities map for every registered
// kind, including unavailable ones.
func (r *Registry) Capabilities() map[models.Kind]models.Capabilities {
	out := make(map[models.Kind]models.Capabilities, len(r.caps))
	for k, v := range r.caps {
		out[k] = v
	}
	return out
}
