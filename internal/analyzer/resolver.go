// Package analyzer resolves content to analyzer kinds and holds the
// registry of analyzer instances.
package analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sandeepmv/contentiq/pkg/models"
)

const fallbackContentType = "application/octet-stream"

// mimeKinds is the primary lookup table from normalized MIME type to kind.
var mimeKinds = map[string]models.Kind{
	"text/plain":       models.KindText,
	"text/markdown":    models.KindText,
	"text/html":        models.KindText,
	"application/json": models.KindText,

	"audio/wav":   models.KindAudio,
	"audio/x-wav": models.KindAudio,
	"audio/mp3":   models.KindAudio,
	"audio/mpeg":  models.KindAudio,
	"audio/ogg":   models.KindAudio,
	"audio/webm":  models.KindAudio,

	"video/mp4":       models.KindVideo,
	"video/quicktime": models.KindVideo,
	"video/x-msvideo": models.KindVideo,
	"video/x-ms-wmv":  models.KindVideo,
	"video/webm":      models.KindVideo,
}

// extContentTypes derives a MIME type from a filename extension when the
// caller supplied none.
var extContentTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".json": "application/json",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
}

// extKinds is the last-resort table consulted when the MIME type is present
// but unrecognized.
var extKinds = map[string]models.Kind{
	".txt":  models.KindText,
	".md":   models.KindText,
	".html": models.KindText,
	".json": models.KindText,
	".wav":  models.KindAudio,
	".mp3":  models.KindAudio,
	".ogg":  models.KindAudio,
	".webm": models.KindAudio,
	".mp4":  models.KindVideo,
	".mov":  models.KindVideo,
	".avi":  models.KindVideo,
	".wmv":  models.KindVideo,
}

// Resolve maps a MIME type and/or filename to an analyzer kind, returning the
// effective content type alongside. Resolution is pure: same inputs always
// yield the same output.
//
// Lookup order: exact MIME match, then MIME derived from the filename
// extension, then the extension directly.
func Resolve(contentType, filename string) (models.Kind, string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if ct == "" && filename != "" {
		ct = extContentTypes[strings.ToLower(filepath.Ext(filename))]
	}
	if ct == "" {
		ct = fallbackContentType
	}

	if kind, ok := mimeKinds[ct]; ok {
		return kind, ct, nil
	}

	if filename != "" {
		if kind, ok := extKinds[strings.ToLower(filepath.Ext(filename))]; ok {
			return kind, ct, nil
		}
	}

	return "", ct, fmt.Errorf("%w: %q", ErrUnsupportedContentType, ct)
}
