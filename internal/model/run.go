package model

import "time"

// RunStatus describes a stored batch run.
type RunStatus string

const (
	// RunStatusOK means every target succeeded.
	RunStatusOK RunStatus = "ok"
	// RunStatusPartial means the run completed with at least one failed
	// target, or was cancelled before all targets started.
	RunStatusPartial RunStatus = "partial"
)

// Run is a persisted batch run, as listed by `digimonitor runs`.
type Run struct {
	ID         string    `json:"id"`
	Platform   Platform  `json:"platform"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Total      int       `json:"total"`
	Status     RunStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// StatusOf derives the stored status for a finished report.
func StatusOf(r *Report) RunStatus {
	if r.Failed == 0 && !r.Cancelled {
		return RunStatusOK
	}
	return RunStatusPartial
}
