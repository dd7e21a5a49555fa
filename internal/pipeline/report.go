package pipeline

import (
	"time"

	"github.com/sygic-travel/tkdocs/internal/history"
	"github.com/sygic-travel/tkdocs/internal/postprocess"
	"github.com/sygic-travel/tkdocs/internal/projectversion"
)

// Report summarizes one pipeline run.
type Report struct {
	RunID          string
	Version        projectversion.Version
	Fallback       bool
	ToolVersion    string
	State          State
	StartedAt      time.Time
	FinishedAt     time.Time
	StageDurations map[StageName]time.Duration
	Summary        postprocess.Summary
	Err            error
}

func newReport(id string, start time.Time) *Report {
	return &Report{
		RunID:          id,
		State:          NotStarted,
		StartedAt:      start,
		StageDurations: make(map[StageName]time.Duration),
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Succeeded reports whether the run reached Done.
func (r *Report) Succeeded() bool { return r.State == Done }

// HistoryRun converts the report to its persisted form.
func (r *Report) HistoryRun() history.Run {
	run := history.Run{
		ID:             r.RunID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Version:        r.Version.String(),
		State:          r.State.String(),
		FilesRewritten: r.Summary.Rewritten,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}
