//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/mltrack/mltrack/internal/artifact"
	"github.com/mltrack/mltrack/internal/auth"
	"github.com/mltrack/mltrack/internal/config"
	"github.com/mltrack/mltrack/internal/restapi"
	"github.com/mltrack/mltrack/internal/server"
	"github.com/mltrack/mltrack/internal/store/sqlstore"
	"github.com/mltrack/mltrack/internal/tracking"
	"github.com/mltrack/mltrack/pkg/app"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

// wire up the dependencies.
func InitializeDependencies() (*dependencies, error) {
	wire.Build(config.NewConfigFromEnv, app.NewInstance, app.ContextFromInstance,
		sbhttpserver.NewConfigFromEnv, sbhttpserver.NewInstance,
		lsql.NewConfigFromEnv, sqlstore.NewInstance,
		sqlstore.NewExperiments, sqlstore.NewRuns, sqlstore.NewMetrics, sqlstore.NewParams,
		sqlstore.NewModels, sqlstore.NewUsers, sqlstore.NewPermissions, sqlstore.NewFlags,
		sqlstore.NewDatabase, NewMigration,
		artifact.NewConfigFromEnv, artifact.NewLocalStore, artifact.NewS3Store, artifact.NewRouter,
		wire.Bind(new(artifact.Store), new(*artifact.Router)),
		auth.NewConfigFromEnv, auth.NewBasicAuthenticator, newAuthRegistry,
		auth.NewEngine, auth.NewGrantReconcilerManager, auth.NewUserAdmin,
		tracking.NewConfigFromEnv, tracking.NewService,
		restapi.NewAuthMiddleware, restapi.NewArtifactsConfigFromEnv,
		restapi.NewExperimentsAPI, restapi.NewRunsAPI, restapi.NewMetricsAPI,
		restapi.NewLoggedModelsAPI, restapi.NewArtifactsAPI,
		restapi.NewPermissionsAPI, restapi.NewUsersAPI,
		server.NewApiServer, server.NewHttpServers,
		newDependencies)
	return &dependencies{}, nil
}
