package restapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/artifact"
	"github.com/mltrack/mltrack/internal/auth"
	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/store/sqlstore"
	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

func newTestService(t *testing.T, defaultLevel store.PermissionLevel) *tracking.Service {
	db, err := sqlstore.NewTestingDatabase(t)
	if err != nil {
		t.Fatalf("failed to build testing database: %v", err)
	}
	engine := auth.NewEngine(&auth.Config{DefaultLevel: defaultLevel}, db)
	artifacts := artifact.NewLocalStore(&artifact.Config{RootLocation: t.TempDir()})
	return tracking.NewService(&tracking.Config{ArtifactProxyEnabled: true}, db, engine, artifacts)
}

// The auth middleware is not in the loop here, so the principal goes
// straight into the request context.
func postJSON(username, target, body string) (*sbhttpbase.Request, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", target, strings.NewReader(body))
	request = request.WithContext(auth.WithPrincipal(request.Context(), &auth.Principal{Username: username}))
	return &sbhttpbase.Request{Writer: recorder, Request: request}, recorder
}

func getQuery(username, target string) (*sbhttpbase.Request, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", target, nil)
	request = request.WithContext(auth.WithPrincipal(request.Context(), &auth.Principal{Username: username}))
	return &sbhttpbase.Request{Writer: recorder, Request: request}, recorder
}

func TestExperimentsAPICreateAndGet(t *testing.T) {
	svc := newTestService(t, store.Read)
	api := NewExperimentsAPI(svc, nil)

	request, recorder := postJSON("alice", "/api/2.0/mltrack/experiments/create",
		`{"name": "exp1", "tags": {"team": "vision"}}`)
	api.create(request)
	assert.Equal(t, 200, recorder.Code)
	var created map[string]string
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.NotEmpty(t, created["experiment_id"])

	request, recorder = getQuery("alice",
		"/api/2.0/mltrack/experiments/get?experiment_id="+created["experiment_id"])
	api.get(request)
	assert.Equal(t, 200, recorder.Code)
	var fetched struct {
		Experiment *Experiment `json:"experiment"`
	}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &fetched))
	assert.Equal(t, "exp1", fetched.Experiment.Name)
	assert.Equal(t, "active", fetched.Experiment.LifecycleStage)
	assert.Equal(t, "vision", fetched.Experiment.Tags["team"])
}

func TestExperimentsAPIMissingIsNotFound(t *testing.T) {
	svc := newTestService(t, store.Read)
	api := NewExperimentsAPI(svc, nil)

	request, recorder := getQuery("alice", "/api/2.0/mltrack/experiments/get?experiment_id=ghost")
	api.get(request)
	assert.Equal(t, 404, recorder.Code)
}

func TestExperimentsAPIMalformedBody(t *testing.T) {
	svc := newTestService(t, store.Read)
	api := NewExperimentsAPI(svc, nil)

	request, recorder := postJSON("alice", "/api/2.0/mltrack/experiments/create", `{"name": `)
	api.create(request)
	assert.Equal(t, 400, recorder.Code)
}

func TestRunsAPIStateMachineOverHTTP(t *testing.T) {
	svc := newTestService(t, store.Read)
	experimentsAPI := NewExperimentsAPI(svc, nil)
	runsAPI := NewRunsAPI(svc, nil)

	request, recorder := postJSON("alice", "/api/2.0/mltrack/experiments/create", `{"name": "exp1"}`)
	experimentsAPI.create(request)
	assert.Equal(t, 200, recorder.Code)
	var created map[string]string
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	request, recorder = postJSON("alice", "/api/2.0/mltrack/runs/create",
		`{"experiment_id": "`+created["experiment_id"]+`", "run_name": "r1", "start_time": 1000}`)
	runsAPI.create(request)
	assert.Equal(t, 200, recorder.Code)
	var runResponse struct {
		Run *Run `json:"run"`
	}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &runResponse))
	assert.Equal(t, "RUNNING", runResponse.Run.Status)

	request, recorder = postJSON("alice", "/api/2.0/mltrack/runs/update",
		`{"run_id": "`+runResponse.Run.RunId+`", "status": "FINISHED", "end_time": 2000}`)
	runsAPI.update(request)
	assert.Equal(t, 200, recorder.Code)
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &runResponse))
	assert.Equal(t, "FINISHED", runResponse.Run.Status)

	// Terminal states stay terminal.
	request, recorder = postJSON("alice", "/api/2.0/mltrack/runs/update",
		`{"run_id": "`+runResponse.Run.RunId+`", "status": "RUNNING"}`)
	runsAPI.update(request)
	assert.Equal(t, 400, recorder.Code)
}

func TestRunsAPIWriteDeniedForReadOnlyCaller(t *testing.T) {
	svc := newTestService(t, store.Read)
	experimentsAPI := NewExperimentsAPI(svc, nil)
	runsAPI := NewRunsAPI(svc, nil)

	request, recorder := postJSON("alice", "/api/2.0/mltrack/experiments/create", `{"name": "exp1"}`)
	experimentsAPI.create(request)
	var created map[string]string
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	request, recorder = postJSON("alice", "/api/2.0/mltrack/runs/create",
		`{"experiment_id": "`+created["experiment_id"]+`", "start_time": 1000}`)
	runsAPI.create(request)
	var runResponse struct {
		Run *Run `json:"run"`
	}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &runResponse))

	request, recorder = postJSON("bob", "/api/2.0/mltrack/runs/log-metric",
		`{"run_id": "`+runResponse.Run.RunId+`", "key": "acc", "value": 0.9, "timestamp": 100, "step": 0}`)
	runsAPI.logMetric(request)
	assert.Equal(t, 403, recorder.Code)
}

func TestViewStages(t *testing.T) {
	stages, err := viewStages("")
	assert.Nil(t, err)
	assert.Equal(t, []store.LifecycleStage{store.LifecycleActive}, stages)

	stages, err = viewStages("ALL")
	assert.Nil(t, err)
	assert.Nil(t, stages)

	_, err = viewStages("SOME")
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
}
