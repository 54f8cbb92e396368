package model

import (
	"time"

	"github.com/google/uuid"
)

// RunDirLayout is the time layout used for run directory names.
// Colons are replaced with hyphens so the name is valid on every
// filesystem the reports land on.
const RunDirLayout = "2006-01-02T15-04-05"

// Run identifies one invocation of the auditor. Every component that
// touches run artifacts receives the Run explicitly; there is no
// ambient "current run" state, which keeps components testable in
// isolation and allows several runs in one process.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID uuid.UUID `json:"id"`

	// StartedAt is the run's start time. Its formatted form is the
	// run directory key.
	StartedAt time.Time `json:"started_at"`
}

// NewRun creates a run starting now.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}
}

// DirName returns the run's persistence-directory key,
// for example "2025-11-03T14-05-09".
func (r *Run) DirName() string {
	return r.StartedAt.Format(RunDirLayout)
}
