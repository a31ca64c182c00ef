package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &LoggedModelsAPI{}

type LoggedModelsAPI struct {
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewLoggedModelsAPI(svc *tracking.Service, authmw AuthMiddleware) *LoggedModelsAPI {
	return &LoggedModelsAPI{svc: svc, authmw: authmw}
}

func (api *LoggedModelsAPI) Ready(ctx context.Context) error { return nil }

func (api *LoggedModelsAPI) Live(ctx context.Context) error { return nil }

func (api *LoggedModelsAPI) Shutdown() error { return nil }

func (api *LoggedModelsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/logged-models/create", Method: "POST", Handler: api.create, Middleware: middleware},
		{Path: apiPrefix + "/logged-models/get", Method: "GET", Handler: api.get, Middleware: middleware},
		{Path: apiPrefix + "/logged-models/search", Method: "POST", Handler: api.search, Middleware: middleware},
	}
}

type createLoggedModelRequest struct {
	ExperimentId string            `json:"experiment_id"`
	SourceRunId  *string           `json:"source_run_id"`
	Name         string            `json:"name"`
	Tags         map[string]string `json:"tags"`
}

func (api *LoggedModelsAPI) create(request *sbhttpbase.Request) {
	var body createLoggedModelRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	model, err := api.svc.CreateLoggedModel(request.Request.Context(), &store.LoggedModel{
		ExperimentId: body.ExperimentId,
		SourceRunId:  body.SourceRunId,
		Name:         body.Name,
		Tags:         body.Tags,
	})
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*LoggedModel{"model": loggedModelPayload(model)})
}

type getLoggedModelRequest struct {
	ModelId string `json:"model_id"`
}

func (api *LoggedModelsAPI) get(request *sbhttpbase.Request) {
	var query getLoggedModelRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	model, err := api.svc.GetLoggedModel(request.Request.Context(), query.ModelId)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*LoggedModel{"model": loggedModelPayload(model)})
}

type searchLoggedModelsRequest struct {
	ExperimentIds []string `json:"experiment_ids"`
	Filter        string   `json:"filter"`
	OrderBy       []string `json:"order_by"`
	MaxResults    int      `json:"max_results"`
	PageToken     string   `json:"page_token"`
}

func (api *LoggedModelsAPI) search(request *sbhttpbase.Request) {
	var body searchLoggedModelsRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	result, err := api.svc.SearchLoggedModels(request.Request.Context(), &tracking.SearchLoggedModelsRequest{
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
	payload := make([]*LoggedModel, 0, len(result.Models))
	for _, model := range result.Models {
		payload = append(payload, loggedModelPayload(model))
	}
	writeJSON(request, map[string]interface{}{
		"models":          payload,
		"next_page_token": result.NextPageToken,
	})
}
