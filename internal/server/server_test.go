package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/internal/catalog"
	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/internal/server"
	"github.com/montage-ui/guideflow/internal/store"
	"github.com/montage-ui/guideflow/pkg/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	orch := flow.New()
	defs, err := catalog.Load()
	require.NoError(t, err)
	require.NoError(t, orch.RegisterFlows(defs...))

	mr := miniredis.RunT(t)
	snapshots := store.NewSnapshotsWithClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), "guideflow")
	t.Cleanup(func() { _ = snapshots.Close() })

	srv := server.NewServer(orch, server.Options{Snapshots: snapshots})
	return srv.SetupRoutes()
}

func doJSON(
	t *testing.T, router *gin.Engine, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func TestHealthEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	as.Equal(http.StatusOK, w.Code)
	as.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func TestListFlows(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/flows", nil)
	as.Equal(http.StatusOK, w.Code)

	defs := decode[[]*api.FlowDefinition](t, w)
	require.Len(t, *defs, 2)
	as.Equal(api.FlowID("bulk-upload"), (*defs)[0].ID)
	as.Equal(api.FlowID("client-setup"), (*defs)[1].ID)
}

func TestStartFlowEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/flows/client-setup/start", nil)
	as.Equal(http.StatusOK, w.Code)

	state := decode[api.FlowStateResponse](t, w)
	as.Equal(api.FlowID("client-setup"), state.Flow.ID)
	as.Equal(api.StepID("welcome"), state.Step.ID)
}

func TestStartUnknownFlow(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/flows/nope/start", nil)
	as.Equal(http.StatusNotFound, w.Code)

	res := decode[api.ErrorResponse](t, w)
	as.Equal(http.StatusNotFound, res.Status)
	as.Contains(res.Error, "nope")
}

func TestCompleteStepEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/client-setup/start", nil)
	doJSON(t, router, http.MethodPost, "/flow/action",
		api.ActionRequest{ActionID: "begin"})

	// missing required fields keeps the step current
	w := doJSON(t, router, http.MethodPost, "/flow/complete",
		api.CompleteRequest{Data: api.Payload{}})
	as.Equal(http.StatusOK, w.Code)

	res := decode[api.CompleteResponse](t, w)
	as.False(res.Advanced)
	require.NotEmpty(t, res.Violations)
	as.Equal(api.StepID("client-form"), res.State.Step.ID)

	// a valid submission advances to review
	w = doJSON(t, router, http.MethodPost, "/flow/complete",
		api.CompleteRequest{Data: api.Payload{
			"company_name": "Initech",
			"email":        "jane@initech.com",
		}})
	as.Equal(http.StatusOK, w.Code)

	res = decode[api.CompleteResponse](t, w)
	as.True(res.Advanced)
	as.Empty(res.Violations)
	as.Equal(api.StepID("review"), res.State.Step.ID)
	as.True(res.State.Context.Completed.Contains("client-form"))
}

func TestCompleteWithoutActiveFlowEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/flow/complete",
		api.CompleteRequest{})
	as.Equal(http.StatusConflict, w.Code)
}

func TestActionEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/bulk-upload/start", nil)

	w := doJSON(t, router, http.MethodPost, "/flow/action",
		api.ActionRequest{ActionID: "start-bulk-upload"})
	as.Equal(http.StatusOK, w.Code)

	state := decode[api.FlowStateResponse](t, w)
	as.Equal(api.StepID("prepare"), state.Step.ID)
}

func TestResetEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/bulk-upload/start", nil)
	w := doJSON(t, router, http.MethodPost, "/flow/reset", nil)
	as.Equal(http.StatusOK, w.Code)

	state := decode[api.FlowStateResponse](t, w)
	as.Nil(state.Flow)
	as.Nil(state.Step)
	as.Nil(state.Context)
}

func TestStepLockEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/bulk-upload/start", nil)
	doJSON(t, router, http.MethodPost, "/flow/action",
		api.ActionRequest{ActionID: "start-bulk-upload"})

	w := doJSON(t, router, http.MethodGet, "/flow/locks/overview", nil)
	as.Equal(http.StatusOK, w.Code)
	as.JSONEq(`{"step_id":"overview","locked":true}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/flow/locks/prepare", nil)
	as.JSONEq(`{"step_id":"prepare","locked":false}`, w.Body.String())
}

func TestSaveAndRestoreState(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/bulk-upload/start", nil)
	doJSON(t, router, http.MethodPost, "/flow/action",
		api.ActionRequest{ActionID: "start-bulk-upload"})

	w := doJSON(t, router, http.MethodPost, "/flow/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	doJSON(t, router, http.MethodPost, "/flow/reset", nil)

	w = doJSON(t, router, http.MethodPost,
		"/flow/restore?flow_id=bulk-upload", nil)
	as.Equal(http.StatusOK, w.Code)

	state := decode[api.FlowStateResponse](t, w)
	as.Equal(api.StepID("prepare"), state.Step.ID)
	as.True(state.Context.Completed.Contains("overview"))
}

func TestRestoreFromBody(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/flow/restore",
		&api.FlowContext{
			FlowID:  "bulk-upload",
			Current: "upload",
		})
	as.Equal(http.StatusOK, w.Code)

	state := decode[api.FlowStateResponse](t, w)
	as.Equal(api.StepID("upload"), state.Step.ID)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost,
		"/flow/restore?flow_id=bulk-upload", nil)
	as.Equal(http.StatusNotFound, w.Code)
}

func TestGetStateWithoutFlow(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/flow/state", nil)
	as.Equal(http.StatusConflict, w.Code)
}

func TestRespondEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/respond",
		api.RespondRequest{Text: "I want to bulk upload a spreadsheet"})
	as.Equal(http.StatusOK, w.Code)

	res := decode[api.RespondResponse](t, w)
	require.NotEmpty(t, res.Suggestions)
	as.Equal(api.ActionID("start-bulk-upload"), res.Suggestions[0].ID)
	as.Equal(api.FlowID("bulk-upload"), res.Suggestions[0].Flow)
}

func TestSuggestedActionsEndpoint(t *testing.T) {
	as := testify.New(t)
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/flows/bulk-upload/start", nil)

	w := doJSON(t, router, http.MethodGet, "/flow/suggested", nil)
	as.Equal(http.StatusOK, w.Code)

	actions := decode[[]*api.SuggestedAction](t, w)
	require.Len(t, *actions, 1)
	as.Equal(api.ActionID("start-bulk-upload"), (*actions)[0].ID)
}
