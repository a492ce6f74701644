package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bmc_collect/application/collector"
	"bmc_collect/domain/entities"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	busy bool
	last *entities.RunResult
}

func (f *fakeCollector) Start() (string, error) {
	if f.busy {
		return "", collector.ErrBusy
	}
	f.busy = true
	f.last = &entities.RunResult{ID: "run-1", Status: entities.RunStatusRunning}
	return "run-1", nil
}

func (f *fakeCollector) Last() (entities.RunResult, bool) {
	if f.last == nil {
		return entities.RunResult{}, false
	}
	return *f.last, true
}

func (f *fakeCollector) Busy() bool { return f.busy }

func newTestServer(c Collector) http.Handler {
	logger, _ := test.NewNullLogger()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bmc_collect_runs_total 0\n"))
	})
	return NewServer(":0", c, metrics, logger).Handler()
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestCollectAcceptsThenConflicts(t *testing.T) {
	h := newTestServer(&fakeCollector{})

	rec := do(h, http.MethodPost, "/api/v1/collect")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "running", body["status"])

	rec = do(h, http.MethodPost, "/api/v1/collect")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in progress")
	assert.Contains(t, rec.Body.String(), "run-1")
}

func TestCollectRejectsGet(t *testing.T) {
	h := newTestServer(&fakeCollector{})
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/v1/collect").Code)
}

func TestLastRun(t *testing.T) {
	c := &fakeCollector{}
	h := newTestServer(c)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/runs/last").Code)

	c.last = &entities.RunResult{
		ID:          "run-9",
		Status:      entities.RunStatusFailed,
		State:       entities.StateFailed,
		FailedStep:  "authenticate",
		FailureKind: "locator_not_found",
	}
	rec := do(h, http.MethodGet, "/api/v1/runs/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-9", got.ID)
	assert.Equal(t, "authenticate", got.FailedStep)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(&fakeCollector{busy: true})

	rec := do(h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","busy":true}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bmc_collect_runs_total")
}
