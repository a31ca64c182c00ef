package server

import (
	"context"

	"github.com/mltrack/mltrack/internal/config"
	restimpl "github.com/mltrack/mltrack/internal/restapi"
	"github.com/mltrack/mltrack/pkg/app"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

// ApiServer carries the process-level readiness checks; the API surface
// itself lives in the per-area handler servers.
type ApiServer struct {
	app *app.Instance
	cfg *config.Config
	db  *lsql.Instance
}

var _ sbhttpserver.Server = &ApiServer{}

func NewApiServer(app *app.Instance, cfg *config.Config, db *lsql.Instance) *ApiServer {
	return &ApiServer{
		app: app,
		cfg: cfg,
		db:  db,
	}
}

func NewHttpServers(apiServer *ApiServer,
	experiments *restimpl.ExperimentsAPI, runs *restimpl.RunsAPI,
	metrics *restimpl.MetricsAPI, models *restimpl.LoggedModelsAPI,
	artifacts *restimpl.ArtifactsAPI, permissions *restimpl.PermissionsAPI,
	users *restimpl.UsersAPI) []sbhttpserver.Server {
	return []sbhttpserver.Server{
		apiServer,
		experiments,
		runs,
		metrics,
		models,
		artifacts,
		permissions,
		users,
	}
}

// Ready fails if we cannot ping the database in a reasonable time
func (s *ApiServer) Ready(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return err
	}
	return nil
}

// Live doesn't do any check. Just answering the request is enough evidence we're alive
func (s *ApiServer) Live(ctx context.Context) error {
	return nil
}

func (s *ApiServer) Shutdown() error {
	return nil
}

func (s *ApiServer) GetHandlers() []sbhttpserver.HandleDescription {
	return []sbhttpserver.HandleDescription{}
}
