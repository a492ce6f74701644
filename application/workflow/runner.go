package workflow

import (
	"context"
	"errors"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Runner opens a session, runs one workflow pass on it and always tears it down
type Runner struct {
	sessions interfaces.SessionFactory
	store    interfaces.ArtifactStore
	opts     Options
	logger   *logrus.Logger
	observer Observer
}

// NewRunner - creates a runner
func NewRunner(sessions interfaces.SessionFactory, store interfaces.ArtifactStore, opts Options, logger *logrus.Logger, observer Observer) *Runner {
	if observer == nil {
		observer = NopObserver()
	}
	return &Runner{
		sessions: sessions,
		store:    store,
		opts:     opts,
		logger:   logger,
		observer: observer,
	}
}

// Run executes one collection run identified by runID
func (r *Runner) Run(ctx context.Context, runID string) (result entities.RunResult, err error) {
	log := r.logger.WithFields(logrus.Fields{"run_id": runID, "driver": r.sessions.Name()})
	log.Info("Starting browser session")

	driver, err := r.sessions.Open(ctx)
	if err != nil {
		var sessionErr *entities.SessionCreationFailedError
		if !errors.As(err, &sessionErr) {
			err = &entities.SessionCreationFailedError{Driver: r.sessions.Name(), Err: err}
		}
		log.Errorf("Failed to start browser session: %v", err)
		now := time.Now().UTC()
		result = entities.RunResult{
			ID:          runID,
			Status:      entities.RunStatusFailed,
			State:       entities.StateFailed,
			FailedStep:  "open_session",
			FailureKind: FailureKind(err),
			Error:       err.Error(),
			StartedAt:   now,
			FinishedAt:  now,
		}
		r.observer.RunFinished(result)
		return result, err
	}

	guard := newTeardownGuard(driver, r.logger)
	defer guard.Release()

	recorder := NewFailureRecorder(runID, driver, r.store, r.logger)
	wf := New(runID, driver, r.opts, recorder, r.logger, r.observer)

	return wf.Run(ctx)
}
