package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bmc_collect/domain/entities"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsRuns(t *testing.T) {
	c := NewCollector()

	c.RunFinished(entities.RunResult{Status: entities.RunStatusSucceeded, State: entities.StateSettled, FinishedAt: time.Unix(1700000000, 0)})
	c.RunFinished(entities.RunResult{Status: entities.RunStatusFailed, State: entities.StateFailed, FailureKind: "click_failed", FinishedAt: time.Unix(1700000100, 0)})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("succeeded", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("failed", "click_failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.lastRunSuccess))
	assert.Equal(t, 1700000100.0, testutil.ToFloat64(c.lastRunFinished))
}

func TestCollectorCountsClicksAndDialogs(t *testing.T) {
	c := NewCollector()

	c.ClickSucceeded(entities.TargetCollectButton, "script")
	c.ClickSucceeded(entities.TargetCollectButton, "script")
	c.ClickSucceeded(entities.TargetLoginButton, "direct")
	c.DialogResolved(entities.NativeDialogAccepted("ok?"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.clicksTotal.WithLabelValues("collect", "script")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.clicksTotal.WithLabelValues("login", "direct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dialogsTotal.WithLabelValues("native")))
}

func TestCollectorStepDuration(t *testing.T) {
	c := NewCollector()
	c.StepCompleted("authenticate", 1500*time.Millisecond, nil)
	c.StepCompleted("trigger_action", time.Second, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(c.stepDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.DialogResolved(entities.NoDialogPresent())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bmc_collect_dialogs_total{kind="none"} 1`)
}
