package model

import "time"

// FailureClass partitions extraction failures by retry policy.
type FailureClass string

const (
	// FailureTransient covers timeouts, navigation errors and platform
	// throttling. Transient failures are retried before being recorded.
	FailureTransient FailureClass = "transient"
	// FailurePermanent covers removed or invalid content, unsupported
	// content types and auth rejections. Never retried.
	FailurePermanent FailureClass = "permanent"
)

// Comment is one scraped comment or chat message.
type Comment struct {
	Author    string `json:"author"`
	Text      string `json:"text,omitempty"`
	Likes     string `json:"likes,omitempty"`
	Replies   string `json:"replies,omitempty"`
	Published string `json:"published,omitempty"`
}

// Payload is the data bag an extractor produces for one target. Field keys
// are platform-specific (channel, subscribers, views, ...).
type Payload struct {
	URL         string            `json:"url"`
	Platform    Platform          `json:"platform"`
	Fields      map[string]string `json:"fields"`
	Comments    []Comment         `json:"comments,omitempty"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

// Outcome is the result of processing one target: either a payload or a
// failure descriptor. Exactly one outcome exists per started target.
type Outcome struct {
	Target   Target        `json:"target"`
	Payload  *Payload      `json:"payload,omitempty"`
	Failure  FailureClass  `json:"failure,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the outcome carries a successful payload.
func (o Outcome) OK() bool { return o.Payload != nil }
