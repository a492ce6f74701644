package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bmc_collect/application/engine"
	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Options is the immutable input of one workflow pass
type Options struct {
	URL      string
	Username string
	Password string
	Locators entities.LocatorMap
	Timeouts entities.Timeouts
}

// Observer receives workflow events, used for metrics
type Observer interface {
	engine.Observer
	StepCompleted(step string, elapsed time.Duration, err error)
	RunFinished(result entities.RunResult)
}

type nopObserver struct {
	engine.Observer
}

func (nopObserver) StepCompleted(string, time.Duration, error) {}
func (nopObserver) RunFinished(entities.RunResult) {}

// NopObserver discards every event
func NopObserver() Observer { return nopObserver{engine.NopObserver()} }

type step struct {
	name string
	to   entities.WorkflowState
	run  func(ctx context.Context) error
}

// Workflow drives Navigate -> Authenticate -> TriggerAction -> ConfirmDialog -> Settle
// once over a single driver session.
type Workflow struct {
	runID    string
	driver   interfaces.Driver
	opts     Options
	resolver *engine.Resolver
	clicker  *engine.Clicker
	dialogs  *engine.DialogHandler
	recorder *FailureRecorder
	logger   *logrus.Logger
	observer Observer

	state  entities.WorkflowState
	dialog *entities.DialogOutcome
}

// New - creates the workflow of run runID bound to driver. The driver is not closed by the workflow.
func New(runID string, driver interfaces.Driver, opts Options, recorder *FailureRecorder, logger *logrus.Logger, observer Observer) *Workflow {
	if observer == nil {
		observer = NopObserver()
	}
	resolver := engine.NewResolver(driver, opts.Timeouts.PollInterval, logger)
	clicker := engine.NewClicker(driver, engine.DefaultStrategies(opts.Timeouts.ScrollSettle), logger, observer)
	dialogs := engine.NewDialogHandler(driver, resolver, clicker, opts.Locators[entities.TargetConfirmButton], opts.Timeouts, logger, observer)

	return &Workflow{
		runID:    runID,
		driver:   driver,
		opts:     opts,
		resolver: resolver,
		clicker:  clicker,
		dialogs:  dialogs,
		recorder: recorder,
		logger:   logger,
		observer: observer,
		state:    entities.StateStart,
	}
}

// State returns the current workflow state
func (w *Workflow) State() entities.WorkflowState {
	return w.state
}

// Run makes a single pass. On failure the recorder runs once and the step error is
// returned as is.
func (w *Workflow) Run(ctx context.Context) (entities.RunResult, error) {
	result := entities.RunResult{
		ID:        w.runID,
		Status:    entities.RunStatusRunning,
		State:     w.state,
		StartedAt: time.Now().UTC(),
	}

	for _, s := range w.steps() {
		if err := ctx.Err(); err != nil {
			return w.fail(ctx, result, s.name, fmt.Errorf("run interrupted before %s: %w", s.name, err))
		}

		started := time.Now()
		w.logger.WithField("step", s.name).Info("Step started")
		err := s.run(ctx)
		w.observer.StepCompleted(s.name, time.Since(started), err)
		if err != nil {
			return w.fail(ctx, result, s.name, err)
		}

		if err := w.advance(s.to); err != nil {
			return w.fail(ctx, result, s.name, err)
		}
		result.State = w.state
	}

	result.Status = entities.RunStatusSucceeded
	result.Dialog = w.dialog
	result.FinishedAt = time.Now().UTC()
	w.logger.WithField("dialog", w.dialog).Info("Collection triggered")
	w.observer.RunFinished(result)
	return result, nil
}

func (w *Workflow) steps() []step {
	return []step{
		{name: "navigate", to: entities.StateNavigated, run: w.navigate},
		{name: "authenticate", to: entities.StateAuthenticated, run: w.authenticate},
		{name: "trigger_action", to: entities.StateActionTriggered, run: w.triggerAction},
		{name: "confirm_dialog", to: entities.StateDialogResolved, run: w.confirmDialog},
		{name: "settle", to: entities.StateSettled, run: w.settle},
	}
}

func (w *Workflow) advance(to entities.WorkflowState) error {
	if err := entities.CheckTransition(w.state, to); err != nil {
		return err
	}
	w.logger.WithFields(logrus.Fields{"from": w.state, "to": to}).Debug("State transition")
	w.state = to
	return nil
}

func (w *Workflow) fail(ctx context.Context, result entities.RunResult, stepName string, err error) (entities.RunResult, error) {
	w.logger.WithFields(logrus.Fields{
		"step":  stepName,
		"state": w.state,
	}).Errorf("Run failed: %v", err)

	failedFrom := w.state
	w.state = entities.StateFailed

	var artifact entities.FailureArtifact
	if w.recorder != nil {
		artifact = w.recorder.Record(ctx, err.Error(), failedFrom)
		result.Artifact = &artifact
	}

	result.Status = entities.RunStatusFailed
	result.State = entities.StateFailed
	result.FailedStep = stepName
	result.FailureKind = FailureKind(err)
	result.Error = err.Error()
	result.Dialog = w.dialog
	result.FinishedAt = time.Now().UTC()
	w.observer.RunFinished(result)
	return result, err
}

func (w *Workflow) navigate(ctx context.Context) error {
	w.logger.WithField("url", w.opts.URL).Info("Opening console")
	if err := w.driver.Open(ctx, w.opts.URL); err != nil {
		return &entities.UnexpectedPageStateError{Step: "navigate", Err: err}
	}
	return nil
}

func (w *Workflow) authenticate(ctx context.Context) error {
	if err := w.fill(ctx, entities.TargetUsername, w.opts.Username); err != nil {
		return err
	}
	if err := w.fill(ctx, entities.TargetPassword, w.opts.Password); err != nil {
		return err
	}
	return w.click(ctx, entities.TargetLoginButton)
}

func (w *Workflow) triggerAction(ctx context.Context) error {
	// Fixed pause: the console gives no reliable signal that login finished.
	if err := engine.Pause(ctx, w.opts.Timeouts.PostLoginSettle); err != nil {
		return err
	}
	w.logger.Info("Clicking collect button")
	return w.click(ctx, entities.TargetCollectButton)
}

func (w *Workflow) confirmDialog(ctx context.Context) error {
	outcome := w.dialogs.Resolve(ctx)
	w.dialog = &outcome
	return nil
}

func (w *Workflow) settle(ctx context.Context) error {
	return engine.Pause(ctx, w.opts.Timeouts.PostActionSettle)
}

func (w *Workflow) resolve(ctx context.Context, target entities.Target) (*engine.ResolvedElement, error) {
	return w.resolver.Resolve(ctx, target, w.opts.Locators[target], w.opts.Timeouts.PerCandidate, w.opts.Timeouts.Step)
}

func (w *Workflow) fill(ctx context.Context, target entities.Target, value string) error {
	el, err := w.resolve(ctx, target)
	if err != nil {
		return err
	}
	if err := w.driver.SetText(ctx, el.Element, value); err != nil {
		return &entities.UnexpectedPageStateError{Step: fmt.Sprintf("fill %s", target), Err: err}
	}
	return nil
}

func (w *Workflow) click(ctx context.Context, target entities.Target) error {
	el, err := w.resolve(ctx, target)
	if err != nil {
		return err
	}
	return w.clicker.Click(ctx, el)
}

// FailureKind names the taxonomy class of err
func FailureKind(err error) string {
	var (
		notFound    *entities.LocatorNotFoundError
		clickFailed *entities.ClickFailedError
		session     *entities.SessionCreationFailedError
		unexpected  *entities.UnexpectedPageStateError
	)
	switch {
	case errors.As(err, &notFound):
		return "locator_not_found"
	case errors.As(err, &clickFailed):
		return "click_failed"
	case errors.As(err, &session):
		return "session_creation_failed"
	case errors.As(err, &unexpected):
		return "unexpected_page_state"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	default:
		return "unknown"
	}
}
