package restapi

import (
	"context"

	"github.com/mltrack/mltrack/internal/auth"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &UsersAPI{}

type UsersAPI struct {
	admin  *auth.UserAdmin
	authmw AuthMiddleware
}

func NewUsersAPI(admin *auth.UserAdmin, authmw AuthMiddleware) *UsersAPI {
	return &UsersAPI{admin: admin, authmw: authmw}
}

func (api *UsersAPI) Ready(ctx context.Context) error { return nil }

func (api *UsersAPI) Live(ctx context.Context) error { return nil }

func (api *UsersAPI) Shutdown() error { return nil }

func (api *UsersAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/users/create", Method: "POST", Handler: api.create, Middleware: middleware},
		{Path: apiPrefix + "/users/get", Method: "GET", Handler: api.get, Middleware: middleware},
		{Path: apiPrefix + "/users/list", Method: "GET", Handler: api.list, Middleware: middleware},
		{Path: apiPrefix + "/users/update-password", Method: "POST", Handler: api.updatePassword, Middleware: middleware},
		{Path: apiPrefix + "/users/update-admin", Method: "POST", Handler: api.updateAdmin, Middleware: middleware},
		{Path: apiPrefix + "/users/delete", Method: "POST", Handler: api.delete, Middleware: middleware},
	}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (api *UsersAPI) create(request *sbhttpbase.Request) {
	var body createUserRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	user, err := api.admin.CreateUser(request.Request.Context(), body.Username, body.Password, body.IsAdmin)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*User{"user": userPayload(user)})
}

type getUserRequest struct {
	Username string `json:"username"`
}

func (api *UsersAPI) get(request *sbhttpbase.Request) {
	var query getUserRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	user, err := api.admin.GetUser(request.Request.Context(), query.Username)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]*User{"user": userPayload(user)})
}

func (api *UsersAPI) list(request *sbhttpbase.Request) {
	users, err := api.admin.ListUsers(request.Request.Context())
	if err != nil {
		writeError(request, err)
		return
	}
	payload := make([]*User, 0, len(users))
	for _, user := range users {
		payload = append(payload, userPayload(user))
	}
	writeJSON(request, map[string][]*User{"users": payload})
}

type updatePasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (api *UsersAPI) updatePassword(request *sbhttpbase.Request) {
	var body updatePasswordRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.admin.UpdatePassword(request.Request.Context(), body.Username, body.Password); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

type updateAdminRequest struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (api *UsersAPI) updateAdmin(request *sbhttpbase.Request) {
	var body updateAdminRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.admin.UpdateAdmin(request.Request.Context(), body.Username, body.IsAdmin); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}

func (api *UsersAPI) delete(request *sbhttpbase.Request) {
	var body getUserRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(request, err)
		return
	}
	if err := api.admin.DeleteUser(request.Request.Context(), body.Username); err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}
