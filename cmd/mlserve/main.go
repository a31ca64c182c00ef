package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/internal/gateway"
	"github.com/mltrack/mltrack/pkg/app"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

type dependencies struct {
	cfg     *gateway.Config
	app     *app.Instance
	svc     *sbhttpserver.Instance
	servers []sbhttpserver.Server
}

func newServers(api *gateway.API) []sbhttpserver.Server {
	return []sbhttpserver.Server{api}
}

func newDependencies(app *app.Instance, cfg *gateway.Config, svc *sbhttpserver.Instance,
	servers []sbhttpserver.Server) *dependencies {
	return &dependencies{
		cfg:     cfg,
		app:     app,
		svc:     svc,
		servers: servers,
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

	if err := deps.svc.Register(sbhttpserver.NewMultiServer(deps.servers)); err != nil {
		panic(err)
	}
	if err := deps.svc.Serve(); err != nil {
		panic(err)
	}

	// Wait for the server to finish
	deps.app.WaitForFinish()
}
