package workflow_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"bmc_collect/application/workflow"
	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"
	"bmc_collect/infrastructure/storage"
	"bmc_collect/testutil/simdom"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() workflow.Options {
	return workflow.Options{
		URL:      "https://bmc.example.test/",
		Username: "admin",
		Password: "s3cret",
		Locators: entities.DefaultLocators(),
		Timeouts: entities.Timeouts{
			PerCandidate:     20 * time.Millisecond,
			Step:             80 * time.Millisecond,
			NativeDialog:     40 * time.Millisecond,
			DomConfirm:       60 * time.Millisecond,
			ScrollSettle:     time.Millisecond,
			PostLoginSettle:  time.Millisecond,
			PostActionSettle: time.Millisecond,
			PollInterval:     2 * time.Millisecond,
		},
	}
}

// consolePage builds a login page whose collect button raises onCollect
func consolePage(onCollect func(d *simdom.DOM)) (*simdom.DOM, map[string]*simdom.Node) {
	dom := simdom.New()
	nodes := map[string]*simdom.Node{
		"username": dom.Add(&simdom.Node{Name: "username"}, "input#username"),
		"password": dom.Add(&simdom.Node{Name: "password"}, "input[type='password']"),
		"login":    dom.Add(&simdom.Node{Name: "login"}, "button[type='submit']"),
		"collect":  dom.Add(&simdom.Node{Name: "collect", OnClick: onCollect}, "div.collect"),
	}
	return dom, nodes
}

type fixture struct {
	dom     *simdom.DOM
	factory *simdom.Factory
	store   interfaces.ArtifactStore
	dir     string
	runner  *workflow.Runner
	logs    *test.Hook
}

func newFixture(t *testing.T, dom *simdom.DOM) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewArtifactStore(dir)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	factory := &simdom.Factory{DOM: dom}

	return &fixture{
		dom:     dom,
		factory: factory,
		store:   store,
		dir:     dir,
		runner:  workflow.NewRunner(factory, store, testOptions(), logger, nil),
		logs:    hook,
	}
}

func (f *fixture) artifactFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestScenarioNativeDialogSettles(t *testing.T) {
	dom, nodes := consolePage(func(d *simdom.DOM) { d.ShowDialog("Start collection?") })
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-a")

	require.NoError(t, err)
	assert.Equal(t, entities.StateSettled, result.State)
	assert.Equal(t, entities.RunStatusSucceeded, result.Status)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, "run-a", result.ID)
	require.NotNil(t, result.Dialog)
	assert.Equal(t, entities.NativeDialogAccepted("Start collection?"), *result.Dialog)
	assert.Nil(t, result.Artifact)

	assert.Equal(t, "https://bmc.example.test/", dom.URL)
	assert.Equal(t, "admin", nodes["username"].Value)
	assert.Equal(t, "s3cret", nodes["password"].Value)
	assert.True(t, nodes["login"].Clicked())
	assert.True(t, nodes["collect"].Clicked())
	assert.Equal(t, []string{"Start collection?"}, dom.AcceptedDialogs())

	assert.Empty(t, f.artifactFiles(t), "no failure artifact on success")
	assert.True(t, dom.Closed())
}

func TestScenarioDomConfirmSettles(t *testing.T) {
	var confirm *simdom.Node
	dom, _ := consolePage(func(d *simdom.DOM) {
		confirm = d.Add(&simdom.Node{Name: "confirm"}, "button#confirm")
	})
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-dom")

	require.NoError(t, err)
	assert.Equal(t, entities.StateSettled, result.State)
	require.NotNil(t, result.Dialog)
	assert.Equal(t, entities.DialogDOMModal, result.Dialog.Kind)
	require.NotNil(t, confirm)
	assert.True(t, confirm.Clicked())
}

func TestScenarioNoConfirmationStillSettles(t *testing.T) {
	dom, _ := consolePage(nil)
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-none")

	require.NoError(t, err)
	assert.Equal(t, entities.StateSettled, result.State)
	assert.Equal(t, entities.NoDialogPresent(), *result.Dialog)
}

func TestScenarioMissingUsernameFails(t *testing.T) {
	dom := simdom.New()
	dom.Add(&simdom.Node{Name: "password"}, "input#password")
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-b")

	var notFound *entities.LocatorNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, entities.TargetUsername, notFound.Target)
	assert.Equal(t, []string(entities.DefaultLocators()[entities.TargetUsername]), notFound.Tried())

	assert.Equal(t, entities.StateFailed, result.State)
	assert.Equal(t, "authenticate", result.FailedStep)
	assert.Equal(t, "locator_not_found", result.FailureKind)
	assert.NotEqual(t, 0, result.ExitCode())

	require.NotNil(t, result.Artifact)
	assert.Equal(t, entities.StateNavigated, result.Artifact.FailedState)
	assert.Equal(t, "run-b", result.Artifact.RunID)
	require.True(t, result.Artifact.Complete())

	png, err := os.ReadFile(result.Artifact.SnapshotPath)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	html, err := os.ReadFile(result.Artifact.DocumentPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "input#password")

	record, err := f.store.LoadRecord()
	require.NoError(t, err)
	assert.Equal(t, result.Artifact.Reason, record.Reason)
	assert.True(t, dom.Closed())
}

func TestScenarioUnclickableCollectButton(t *testing.T) {
	dom, nodes := consolePage(nil)
	nodes["collect"].Broken = true
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-c")

	var clickErr *entities.ClickFailedError
	require.ErrorAs(t, err, &clickErr)
	assert.Equal(t, entities.TargetCollectButton, clickErr.Target)
	assert.Len(t, clickErr.Attempts, 3)

	assert.Equal(t, "trigger_action", result.FailedStep)
	require.NotNil(t, result.Artifact)
	assert.True(t, result.Artifact.Complete())
	assert.Equal(t, 1, dom.CloseCount, "session must be torn down exactly once")
}

func TestNavigationErrorIsUnexpectedPageState(t *testing.T) {
	dom, _ := consolePage(nil)
	dom.OpenErr = errors.New("net::ERR_CONNECTION_REFUSED")
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-nav")

	var unexpected *entities.UnexpectedPageStateError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "navigate", result.FailedStep)
	assert.True(t, dom.Closed())
}

func TestCaptureFailureDoesNotMaskRunError(t *testing.T) {
	dom := simdom.New()
	dom.SnapshotErr = errors.New("screenshot: target crashed")
	f := newFixture(t, dom)

	result, err := f.runner.Run(context.Background(), "run-capture")

	var notFound *entities.LocatorNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.NotNil(t, result.Artifact)
	assert.Empty(t, result.Artifact.SnapshotPath)
	assert.NotEmpty(t, result.Artifact.DocumentPath)

	var sawCaptureError bool
	for _, e := range f.logs.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "Failed to capture snapshot: screenshot: target crashed" {
			sawCaptureError = true
		}
	}
	assert.True(t, sawCaptureError)
}

func TestPartialCaptureLeavesNoArtifactFromEarlierFailure(t *testing.T) {
	dom := simdom.New()
	f := newFixture(t, dom)

	first, err := f.runner.Run(context.Background(), "run-1")
	require.Error(t, err)
	require.NotNil(t, first.Artifact)
	require.FileExists(t, first.Artifact.SnapshotPath)

	dom.SnapshotErr = errors.New("screenshot: target crashed")
	second, err := f.runner.Run(context.Background(), "run-2")
	require.Error(t, err)
	require.NotNil(t, second.Artifact)
	assert.Empty(t, second.Artifact.SnapshotPath)

	assert.ElementsMatch(t, []string{"bmc_collect_last.html", "bmc_collect_last.json"}, f.artifactFiles(t))
	record, err := f.store.LoadRecord()
	require.NoError(t, err)
	assert.Equal(t, "run-2", record.RunID)
}

func TestSessionCreationFailed(t *testing.T) {
	f := newFixture(t, simdom.New())
	f.factory.OpenErr = errors.New("chromedriver not found")

	result, err := f.runner.Run(context.Background(), "run-session")

	var sessionErr *entities.SessionCreationFailedError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "simdom", sessionErr.Driver)
	assert.Equal(t, "open_session", result.FailedStep)
	assert.Equal(t, "session_creation_failed", result.FailureKind)
	assert.Nil(t, result.Artifact)
	assert.False(t, f.dom.Closed())
}

func TestInterruptedRunStillTearsDown(t *testing.T) {
	dom, _ := consolePage(nil)
	f := newFixture(t, dom)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.runner.Run(ctx, "run-int")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "navigate", result.FailedStep)
	assert.Equal(t, "interrupted", result.FailureKind)
	require.NotNil(t, result.Artifact)
	assert.True(t, result.Artifact.Complete(), "captures run even after cancellation")
	assert.True(t, dom.Closed())
}

func TestWorkflowStatesAdvanceInOrder(t *testing.T) {
	dom, _ := consolePage(nil)
	logger, _ := test.NewNullLogger()
	obs := &stepObserver{}

	wf := workflow.New("run-states", dom, testOptions(), nil, logger, obs)
	assert.Equal(t, entities.StateStart, wf.State())

	_, err := wf.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entities.StateSettled, wf.State())
	assert.Equal(t, []string{"navigate", "authenticate", "trigger_action", "confirm_dialog", "settle"}, obs.steps)
	require.Len(t, obs.finished, 1)
	assert.Equal(t, "run-states", obs.finished[0].ID)
	assert.False(t, dom.Closed(), "workflow never closes the session itself")
}

type stepObserver struct {
	workflow.Observer
	steps    []string
	finished []entities.RunResult
}

func (o *stepObserver) ClickSucceeded(entities.Target, string) {}
func (o *stepObserver) DialogResolved(entities.DialogOutcome) {}

func (o *stepObserver) StepCompleted(step string, _ time.Duration, _ error) {
	o.steps = append(o.steps, step)
}

func (o *stepObserver) RunFinished(result entities.RunResult) {
	o.finished = append(o.finished, result)
}

func TestRunnerReportsRunIDToObserver(t *testing.T) {
	dom := simdom.New()
	logger, _ := test.NewNullLogger()
	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	obs := &stepObserver{}
	runner := workflow.NewRunner(&simdom.Factory{DOM: dom}, store, testOptions(), logger, obs)

	result, err := runner.Run(context.Background(), "run-observed")
	require.Error(t, err)

	require.Len(t, obs.finished, 1)
	assert.Equal(t, "run-observed", obs.finished[0].ID)
	assert.Equal(t, result.ID, obs.finished[0].ID)
	assert.Equal(t, entities.RunStatusFailed, obs.finished[0].Status)
}
