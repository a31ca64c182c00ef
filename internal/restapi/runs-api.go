package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &RunsAPI{}

type RunsAPI struct {
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewRunsAPI(svc *tracking.Service, authmw AuthMiddleware) *RunsAPI {
	return &RunsAPI{svc: svc, authmw: authmw}
}

func (api *RunsAPI) Ready(ctx context.Context) error { return nil }

func (api *RunsAPI) Live(ctx context.Context) error { return nil }

func (api *RunsAPI) Shutdown() error { return nil }

func (api *RunsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/runs/create", Method: "POST", Handler: api.create, Middleware: middleware},
		{Path: apiPrefix + "/runs/get", Method: "GET", Handler: api.get, Middleware: middleware},
		{Path: apiPrefix + "/runs/update", Method: "POST", Handler: api.update, Middleware: middleware},
		{Path: apiPrefix + "/runs/delete", Method: "POST", Handler: api.delete, Middleware: middleware},
		{Path: apiPrefix + "/runs/restore", Method: "POST", Handler: api.restore, Middleware: middleware},
		{Path: apiPrefix + "/runs/search", Method: "POST", Handler: api.search, Middleware: middleware},
		{Path: apiPrefix + "/runs/set-tag", Method: "POST", Handler: api.setTag, Middleware: middleware},
		{Path: apiPrefix + "/runs/delete-tag", Method: "POST", Handler: api.deleteTag, Middleware: middleware},
		{Path: apiPrefix + "/runs/log-metric", Method: "POST", Handler: api.logMetric, Middleware: middleware},
		{Path: apiPrefix + "/runs/log-parameter", Method: "POST", Handler: api.logParam, Middleware: middleware},
		{Path: apiPrefix + "/runs/log-batch", Method: "POST", Handler: api.logBatch, Middleware: middleware},
	}
}

type createRunRequest struct {
	ExperimentId string            `json:"experiment_id"`
	RunName      string            `json:"run_name"`
	StartTime    int64             `json:"start_time"`
	Tags         map[string]string `json:"tags"`
}

func (api *RunsAPI) create(request *sbhttpbase.Request) {
	var body createRunRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	run, err := api.svc.CreateRun(request.Request.Context(), &store.Run{
		ExperimentId: body.ExperimentId,
		Name:         body.RunName,
		StartTime:    body.StartTime,
		Tags:         body.Tags,
	})
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*Run{"run": runPayload(run)})
}

type getRunRequest struct {
	RunId string `json:"run_id"`
}

func (api *RunsAPI) get(request *sbhttpbase.Request) {
	var query getRunRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	run, err := api.svc.GetRun(request.Request.Context(), query.RunId)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*Run{"run": runPayload(run)})
}

type updateRunRequest struct {
	RunId   string `json:"run_id"`
	Status  string `json:"status"`
	EndTime *int64 `json:"end_time"`
}

func (api *RunsAPI) update(request *sbhttpbase.Request) {
	var body updateRunRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	err := api.svc.UpdateRunStatus(request.Request.Context(), body.RunId, store.RunStatus(body.Status), body.EndTime)
	if err != nil {
		writeError(request, err)
		return
	}
	run, err := api.svc.GetRun(request.Request.Context(), body.RunId)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*Run{"run": runPayload(run)})
}

func (api *RunsAPI) delete(request *sbhttpbase.Request) {
	var body getRunRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.DeleteRun(request.Request.Context(), body.RunId); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

func (api *RunsAPI) restore(request *sbhttpbase.Request) {
	var body getRunRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.RestoreRun(request.Request.Context(), body.RunId); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type searchRunsRequest struct {
	ExperimentIds []string `json:"experiment_ids"`
	Filter        string   `json:"filter"`
	OrderBy       []string `json:"order_by"`
	MaxResults    int      `json:"max_results"`
	PageToken     string   `json:"page_token"`
}

func (api *RunsAPI) search(request *sbhttpbase.Request) {
	var body searchRunsRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	result, err := api.svc.SearchRuns(request.Request.Context(), &tracking.SearchRunsRequest{
		ExperimentIds: body.ExperimentIds,
		Filter:        body.Filter,
		OrderBy:       body.OrderBy,
		MaxResults:    body.MaxResults,
		PageToken:     body.PageToken,
	})
	if err != nil {
		writeError(request, err)
		return
	}
	payload := make([]*Run, 0, len(result.Runs))
	for _, run := range result.Runs {
		payload = append(payload, runPayload(run))
	}
	writeJSON(request, map[string]interface{}{
		"runs":            payload,
		"next_page_token": result.NextPageToken,
	})
}

type setRunTagRequest struct {
	RunId string `json:"run_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (api *RunsAPI) setTag(request *sbhttpbase.Request) {
	var body setRunTagRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.SetRunTag(request.Request.Context(), body.RunId, body.Key, body.Value); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type deleteRunTagRequest struct {
	RunId string `json:"run_id"`
	Key   string `json:"key"`
}

func (api *RunsAPI) deleteTag(request *sbhttpbase.Request) {
	var body deleteRunTagRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.DeleteRunTag(request.Request.Context(), body.RunId, body.Key); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type logMetricRequest struct {
	RunId string `json:"run_id"`
	Metric
}

func (api *RunsAPI) logMetric(request *sbhttpbase.Request) {
	var body logMetricRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.LogMetric(request.Request.Context(), body.Metric.toStore(body.RunId)); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type logParamRequest struct {
	RunId string `json:"run_id"`
	Param
}

func (api *RunsAPI) logParam(request *sbhttpbase.Request) {
	var body logParamRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	err := api.svc.LogParam(request.Request.Context(), &store.Param{
		RunId: body.RunId,
		Key:   body.Param.Key,
		Value: body.Param.Value,
	})
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type logBatchRequest struct {
	RunId   string            `json:"run_id"`
	Metrics []*Metric         `json:"metrics"`
	Params  []*Param          `json:"params"`
	Tags    map[string]string `json:"tags"`
}

func (api *RunsAPI) logBatch(request *sbhttpbase.Request) {
	var body logBatchRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	metrics := make([]*store.Metric, 0, len(body.Metrics))
	for _, metric := range body.Metrics {
		metrics = append(metrics, metric.toStore(body.RunId))
	}
	params := make([]*store.Param, 0, len(body.Params))
	for _, param := range body.Params {
		params = append(params, &store.Param{RunId: body.RunId, Key: param.Key, Value: param.Value})
	}
	if err := api.svc.LogBatch(request.Request.Context(), body.RunId, metrics, params, body.Tags); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}
