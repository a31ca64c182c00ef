package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &MetricsAPI{}

type MetricsAPI struct {
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewMetricsAPI(svc *tracking.Service, authmw AuthMiddleware) *MetricsAPI {
	return &MetricsAPI{svc: svc, authmw: authmw}
}

func (api *MetricsAPI) Ready(ctx context.Context) error { return nil }

func (api *MetricsAPI) Live(ctx context.Context) error { return nil }

func (api *MetricsAPI) Shutdown() error { return nil }

func (api *MetricsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/metrics/get-history", Method: "GET", Handler: api.getHistory, Middleware: middleware},
	}
}

type getMetricHistoryRequest struct {
	RunId     string `json:"run_id"`
	MetricKey string `json:"metric_key"`
}

func (api *MetricsAPI) getHistory(request *sbhttpbase.Request) {
	var query getMetricHistoryRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	metrics, err := api.svc.GetMetricHistory(request.Request.Context(), query.RunId, query.MetricKey)
	if err != nil {
		writeError(request, err)
		return
	}
	payload := make([]*Metric, 0, len(metrics))
	for _, metric := range metrics {
		payload = append(payload, metricPayload(metric))
	}
	writeJSON(request, map[string][]*Metric{"metrics": payload})
}
