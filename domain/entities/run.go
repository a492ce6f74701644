package entities

import "time"

// RunStatus represents the externally visible status of a collection run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunResult summarises one workflow pass
type RunResult struct {
	ID          string           `json:"id"`
	Status      RunStatus        `json:"status"`
	State       WorkflowState    `json:"state"`
	FailedStep  string           `json:"failed_step,omitempty"`
	FailureKind string           `json:"failure_kind,omitempty"`
	Dialog      *DialogOutcome   `json:"dialog,omitempty"`
	Artifact    *FailureArtifact `json:"artifact,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at,omitempty"`
}

// ExitCode maps the run to the process exit contract
func (r RunResult) ExitCode() int {
	if r.State == StateSettled {
		return 0
	}
	return 1
}
