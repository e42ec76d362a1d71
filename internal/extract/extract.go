// Package extract holds the extraction collaborator boundary: the Extractor
// interface the batch runner drives, the transient/permanent failure taxonomy
// it applies retry policy to, and the chromedp-backed platform extractors.
package extract

import (
	"context"

	"github.com/digibook/digimonitor/internal/model"
)

// Extractor retrieves public data for a single target. Implementations report
// expected failures as TransientError or PermanentError rather than panicking;
// the batch runner decides whether to retry.
type Extractor interface {
	Name() string
	Platform() model.Platform
	Extract(ctx context.Context, target model.Target) (*model.Payload, error)
}
