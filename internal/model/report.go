package model

import "time"

// Report is the aggregate result of a batch run: one outcome per started
// target, in input order, plus summary counts. Assembled by the batch runner
// and handed to the reporter once the run ends.
type Report struct {
	Platform   Platform  `json:"platform"`
	Outcomes   []Outcome `json:"outcomes"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Total      int       `json:"total"`
	Cancelled  bool      `json:"cancelled,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewReport builds a report from ordered outcomes, deriving summary counts.
func NewReport(platform Platform, outcomes []Outcome, started, finished time.Time, cancelled bool) *Report {
	r := &Report{
		Platform:   platform,
		Outcomes:   outcomes,
		Total:      len(outcomes),
		Cancelled:  cancelled,
		StartedAt:  started,
		FinishedAt: finished,
	}
	for _, o := range outcomes {
		if o.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
	return r
}

// Failures returns the failed outcomes, preserving input order.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
