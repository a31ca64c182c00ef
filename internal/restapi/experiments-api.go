package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &ExperimentsAPI{}

type ExperimentsAPI struct {
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewExperimentsAPI(svc *tracking.Service, authmw AuthMiddleware) *ExperimentsAPI {
	return &ExperimentsAPI{svc: svc, authmw: authmw}
}

func (api *ExperimentsAPI) Ready(ctx context.Context) error { return nil }

func (api *ExperimentsAPI) Live(ctx context.Context) error { return nil }

func (api *ExperimentsAPI) Shutdown() error { return nil }

func (api *ExperimentsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/experiments/create", Method: "POST", Handler: api.create, Middleware: middleware},
		{Path: apiPrefix + "/experiments/get", Method: "GET", Handler: api.get, Middleware: middleware},
		{Path: apiPrefix + "/experiments/get-by-name", Method: "GET", Handler: api.getByName, Middleware: middleware},
		{Path: apiPrefix + "/experiments/list", Method: "GET", Handler: api.list, Middleware: middleware},
		{Path: apiPrefix + "/experiments/update", Method: "POST", Handler: api.update, Middleware: middleware},
		{Path: apiPrefix + "/experiments/delete", Method: "POST", Handler: api.delete, Middleware: middleware},
		{Path: apiPrefix + "/experiments/restore", Method: "POST", Handler: api.restore, Middleware: middleware},
		{Path: apiPrefix + "/experiments/set-experiment-tag", Method: "POST", Handler: api.setTag, Middleware: middleware},
	}
}

type createExperimentRequest struct {
	Name             string            `json:"name"`
	ArtifactLocation string            `json:"artifact_location"`
	Tags             map[string]string `json:"tags"`
}

func (api *ExperimentsAPI) create(request *sbhttpbase.Request) {
	var body createExperimentRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	experiment, err := api.svc.CreateExperiment(request.Request.Context(), body.Name, body.ArtifactLocation, body.Tags)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]string{"experiment_id": experiment.ExperimentId})
}

type getExperimentRequest struct {
	ExperimentId string `json:"experiment_id"`
}

func (api *ExperimentsAPI) get(request *sbhttpbase.Request) {
	var query getExperimentRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	experiment, err := api.svc.GetExperiment(request.Request.Context(), query.ExperimentId)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*Experiment{"experiment": experimentPayload(experiment)})
}

type getExperimentByNameRequest struct {
	ExperimentName string `json:"experiment_name"`
}

func (api *ExperimentsAPI) getByName(request *sbhttpbase.Request) {
	var query getExperimentByNameRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	experiment, err := api.svc.GetExperimentByName(request.Request.Context(), query.ExperimentName)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*Experiment{"experiment": experimentPayload(experiment)})
}

type listExperimentsRequest struct {
	ViewType string `json:"view_type"`
}

func viewStages(viewType string) ([]store.LifecycleStage, error) {
	switch viewType {
	case "", "ACTIVE_ONLY":
		return []store.LifecycleStage{store.LifecycleActive}, nil
	case "DELETED_ONLY":
		return []store.LifecycleStage{store.LifecycleDeleted}, nil
	case "ALL":
		return nil, nil
	}
	return nil, store.NewSchemaValidation("unknown view_type %q", viewType)
}

func (api *ExperimentsAPI) list(request *sbhttpbase.Request) {
	var query listExperimentsRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	stages, err := viewStages(query.ViewType)
	if err != nil {
		writeError(request, err)
		return
	}
	experiments, err := api.svc.ListExperiments(request.Request.Context(), stages)
	if err != nil {
		writeError(request, err)
		return
	}
	payload := make([]*Experiment, 0, len(experiments))
	for _, experiment := range experiments {
		payload = append(payload, experimentPayload(experiment))
	}
	writeJSON(request, map[string][]*Experiment{"experiments": payload})
}

type updateExperimentRequest struct {
	ExperimentId string `json:"experiment_id"`
	NewName      string `json:"new_name"`
}

func (api *ExperimentsAPI) update(request *sbhttpbase.Request) {
	var body updateExperimentRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.RenameExperiment(request.Request.Context(), body.ExperimentId, body.NewName); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

func (api *ExperimentsAPI) delete(request *sbhttpbase.Request) {
	var body getExperimentRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.DeleteExperiment(request.Request.Context(), body.ExperimentId); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

func (api *ExperimentsAPI) restore(request *sbhttpbase.Request) {
	var body getExperimentRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.RestoreExperiment(request.Request.Context(), body.ExperimentId); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type setExperimentTagRequest struct {
	ExperimentId string `json:"experiment_id"`
	Key          string `json:"key"`
	Value        string `json:"value"`
}

func (api *ExperimentsAPI) setTag(request *sbhttpbase.Request) {
	var body setExperimentTagRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.svc.SetExperimentTag(request.Request.Context(), body.ExperimentId, body.Key, body.Value); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}
