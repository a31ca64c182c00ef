package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/internal/auth"
	"github.com/mltrack/mltrack/internal/config"
	"github.com/mltrack/mltrack/internal/migrations"
	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/pkg/app"
	"github.com/mltrack/mltrack/pkg/reconciler"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type dependencies struct {
	cfg             *config.Config
	authCfg         *auth.Config
	app             *app.Instance
	svc             *sbhttpserver.Instance
	servers         []sbhttpserver.Server
	database        store.Database
	migration       *lsql.Migration
	grantReconciler *reconciler.Manager[string]
}

func NewMigration(appCfg *config.Config, cfg *lsql.Config) (*lsql.Migration, error) {
	if appCfg.Migrate {
		return lsql.NewMigration(cfg, migrations.Sets())
	}
	return nil, nil
}

func newAuthRegistry(basic *auth.BasicAuthenticator) *auth.Registry {
	return auth.NewRegistry(basic)
}

func newDependencies(app *app.Instance, cfg *config.Config, authCfg *auth.Config,
	svc *sbhttpserver.Instance, servers []sbhttpserver.Server,
	database store.Database, migration *lsql.Migration,
	grantReconciler *reconciler.Manager[string]) *dependencies {
	return &dependencies{
		cfg:             cfg,
		authCfg:         authCfg,
		app:             app,
		svc:             svc,
		servers:         servers,
		database:        database,
		migration:       migration,
		grantReconciler: grantReconciler,
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetReportCaller(true)
	deps, err := InitializeDependencies()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if deps.cfg.Migrate {
		if err := deps.migration.Run(deps.cfg.MigrationVersion); err != nil {
			panic(err)
		}
	}

	// Seed the admin account before accepting traffic.
	if err := auth.Bootstrap(app.ContextFromInstance(deps.app), deps.authCfg, deps.database); err != nil {
		panic(err)
	}

	if err := deps.svc.Register(sbhttpserver.NewMultiServer(deps.servers)); err != nil {
		panic(err)
	}
	if err := deps.svc.Serve(); err != nil {
		panic(err)
	}

	// Start the grant cache reconciler
	deps.grantReconciler.Start()
	defer deps.grantReconciler.Finish()

	// Wait for the server to finish
	deps.app.WaitForFinish()
}
