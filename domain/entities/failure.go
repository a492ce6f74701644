package entities

import "time"

// FailureArtifact describes the diagnostics captured when a run fails.
// Paths are empty when the matching capture could not be written.
type FailureArtifact struct {
	RunID        string        `json:"run_id,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	Reason       string        `json:"reason"`
	FailedState  WorkflowState `json:"failed_state,omitempty"`
	SnapshotPath string        `json:"snapshot_path,omitempty"`
	DocumentPath string        `json:"document_path,omitempty"`
}

// Complete reports whether both captures were written
func (a FailureArtifact) Complete() bool {
	return a.SnapshotPath != "" && a.DocumentPath != ""
}
