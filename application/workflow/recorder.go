package workflow

import (
	"context"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const captureTimeout = 15 * time.Second

// FailureRecorder captures a screenshot and the page markup when a run fails.
// It is best effort: capture errors are logged and never replace the run error.
type FailureRecorder struct {
	runID  string
	driver interfaces.Driver
	store  interfaces.ArtifactStore
	logger *logrus.Logger
	now    func() time.Time
}

// NewFailureRecorder - creates a recorder writing the artifacts of run runID into store
func NewFailureRecorder(runID string, driver interfaces.Driver, store interfaces.ArtifactStore, logger *logrus.Logger) *FailureRecorder {
	return &FailureRecorder{
		runID:  runID,
		driver: driver,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Record captures diagnostics for reason. Captures still run when ctx is already
// cancelled, bounded by their own timeout.
func (r *FailureRecorder) Record(ctx context.Context, reason string, state entities.WorkflowState) entities.FailureArtifact {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	artifact := entities.FailureArtifact{
		RunID:       r.runID,
		Timestamp:   r.now().UTC(),
		Reason:      reason,
		FailedState: state,
	}

	if err := r.store.Reset(); err != nil {
		r.logger.Errorf("Failed to remove previous artifacts: %v", err)
	}

	if png, err := r.driver.TakeSnapshot(ctx); err != nil {
		r.logger.Errorf("Failed to capture snapshot: %v", err)
	} else if path, err := r.store.SaveSnapshot(png); err != nil {
		r.logger.Errorf("Failed to save snapshot: %v", err)
	} else {
		artifact.SnapshotPath = path
	}

	if markup, err := r.driver.DumpDocument(ctx); err != nil {
		r.logger.Errorf("Failed to capture page source: %v", err)
	} else if path, err := r.store.SaveDocument(markup); err != nil {
		r.logger.Errorf("Failed to save page source: %v", err)
	} else {
		artifact.DocumentPath = path
	}

	if err := r.store.SaveRecord(artifact); err != nil {
		r.logger.Errorf("Failed to save failure record: %v", err)
	}

	r.logger.WithFields(logrus.Fields{
		"snapshot": artifact.SnapshotPath,
		"document": artifact.DocumentPath,
	}).Errorf("Saved debug artifacts (reason: %s)", reason)

	return artifact
}
