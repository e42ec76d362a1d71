package model

// Target is the unit of work for a batch run: one URL paired with the
// platform it will be extracted from. Targets are immutable once resolved.
type Target struct {
	// Index is the zero-based position of the URL in the resolved input
	// (file order, or 0 for a single-URL invocation). Report ordering is
	// defined by Index even when extraction runs concurrently.
	Index    int      `json:"index"`
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}
