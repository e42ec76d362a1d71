// Package platform maps the CLI platform selector to its extraction
// collaborator. The registry is built once at startup; lookup failures
// happen before any target is processed.
package platform

import (
	"regexp"

	"github.com/digibook/digimonitor/internal/extract"
	"github.com/digibook/digimonitor/internal/model"
)

// URL shapes per platform, used to cross-check targets against the selected
// platform before a browser tab is spent on them.
var urlPatterns = map[model.Platform]*regexp.Regexp{
	model.PlatformYouTube: regexp.MustCompile(`^https?://(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]+`),
	model.PlatformTwitch:  regexp.MustCompile(`^https?://(www\.)?twitch\.tv/[\w-]+`),
	model.PlatformTikTok:  regexp.MustCompile(`^https?://(www\.)?tiktok\.com/@[\w.]+/video/\d+`),
}

// Registry holds one extractor per supported platform.
type Registry struct {
	extractors map[model.Platform]extract.Extractor
}

// NewRegistry indexes the given extractors by platform.
func NewRegistry(extractors ...extract.Extractor) *Registry {
	m := make(map[model.Platform]extract.Extractor, len(extractors))
	for _, e := range extractors {
		m[e.Platform()] = e
	}
	return &Registry{extractors: m}
}

// Lookup returns the extractor for p, or UnsupportedPlatformError when p is
// outside the registered set. Called once per run, never per target.
func (r *Registry) Lookup(p model.Platform) (extract.Extractor, error) {
	e, ok := r.extractors[p]
	if !ok {
		return nil, &model.UnsupportedPlatformError{Selector: string(p)}
	}
	return e, nil
}

// MatchesPlatform reports whether rawURL has the expected shape for p.
// Unknown platforms match nothing.
func MatchesPlatform(rawURL string, p model.Platform) bool {
	re, ok := urlPatterns[p]
	if !ok {
		return false
	}
	return re.MatchString(rawURL)
}
