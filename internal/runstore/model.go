package runstore

import (
	"strings"
	"time"
)

// Outcome of one task run.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDisabled Outcome = "disabled"
	OutcomeFailed   Outcome = "failed"
)

// Run is one invocation of a bot task.
type Run struct {
	ID       string    `json:"id"`
	Task     string    `json:"task"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Outcome  Outcome   `json:"outcome"`
	Error    string    `json:"error,omitempty"`
	// Note is a short human summary, e.g. the page that was written.
	Note string `json:"note,omitempty"`
}

func (r Run) Duration() time.Duration { return r.Finished.Sub(r.Started) }

func normalizeRun(r Run) Run {
	r.ID = strings.TrimSpace(r.ID)
	r.Task = strings.TrimSpace(r.Task)
	if r.Outcome == "" {
		r.Outcome = OutcomeOK
	}
	r.Started = r.Started.UTC()
	r.Finished = r.Finished.UTC()
	return r
}
