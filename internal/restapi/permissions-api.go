package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/tracking"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &PermissionsAPI{}

type PermissionsAPI struct {
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewPermissionsAPI(svc *tracking.Service, authmw AuthMiddleware) *PermissionsAPI {
	return &PermissionsAPI{svc: svc, authmw: authmw}
}

func (api *PermissionsAPI) Ready(ctx context.Context) error { return nil }

func (api *PermissionsAPI) Live(ctx context.Context) error { return nil }

func (api *PermissionsAPI) Shutdown() error { return nil }

func (api *PermissionsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	handlers := make([]sbhttpserver.HandleDescription, 0)
	for path, resourceType := range map[string]store.ResourceType{
		"experiments":       store.ResourceExperiment,
		"registered-models": store.ResourceRegisteredModel,
	} {
		resource := resourceType
		handlers = append(handlers,
			sbhttpserver.HandleDescription{
				Path: apiPrefix + "/permissions/" + path + "/create", Method: "POST",
				Handler: api.upsertHandler(resource), Middleware: middleware,
			},
			sbhttpserver.HandleDescription{
				Path: apiPrefix + "/permissions/" + path + "/get", Method: "GET",
				Handler: api.getHandler(resource), Middleware: middleware,
			},
			sbhttpserver.HandleDescription{
				Path: apiPrefix + "/permissions/" + path + "/update", Method: "POST",
				Handler: api.upsertHandler(resource), Middleware: middleware,
			},
			sbhttpserver.HandleDescription{
				Path: apiPrefix + "/permissions/" + path + "/delete", Method: "POST",
				Handler: api.deleteHandler(resource), Middleware: middleware,
			},
		)
	}
	return handlers
}

type permissionRequest struct {
	ResourceId string `json:"resource_id"`
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

func (api *PermissionsAPI) upsertHandler(resourceType store.ResourceType) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		var body permissionRequest
		if err := decodeJSON(request, &body); err != nil {
			writeError(request, err)
			return
		}
		err := api.svc.SetPermission(request.Request.Context(), &store.PermissionGrant{
			ResourceType: resourceType,
			ResourceId:   body.ResourceId,
			Username:     body.Username,
			Level:        store.PermissionLevel(body.Permission),
		})
		if err != nil {
			writeError(request, err)
			return
		}
		writeJSON(request, struct{}{})
	}
}

func (api *PermissionsAPI) getHandler(resourceType store.ResourceType) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		var query permissionRequest
		if err := decodeQuery(request, &query); err != nil {
			writeError(request, err)
			return
		}
		grant, err := api.svc.GetPermission(request.Request.Context(), resourceType, query.ResourceId, query.Username)
		if err != nil {
			writeError(request, err)
			return
		}
		writeJSON(request, map[string]*PermissionGrant{"permission": grantPayload(grant)})
	}
}

func (api *PermissionsAPI) deleteHandler(resourceType store.ResourceType) sbhttpbase.HandleFunc {
	return func(request *sbhttpbase.Request) {
		var body permissionRequest
		if err := decodeJSON(request, &body); err != nil {
			writeError(request, err)
			return
		}
		err := api.svc.DeletePermission(request.Request.Context(), resourceType, body.ResourceId, body.Username)
		if err != nil {
			writeError(request, err)
			return
		}
		writeJSON(request, struct{}{})
	}
}
