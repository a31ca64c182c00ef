package builders

import (
	"github.com/google/wire"

	"github.com/mltrack/mltrack/pkg/app"
	interceptors_inflight "github.com/mltrack/mltrack/pkg/interceptors/in-flight"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
	ltime "github.com/mltrack/mltrack/pkg/time"
)

var Builders = wire.NewSet(
	app.NewInstance,
	app.ContextFromInstance,
	interceptors_inflight.NewConfigFromEnv,
	interceptors_inflight.NewInterceptor,
	ltime.NewWallSleeper,
	wire.Bind(new(ltime.Sleeper), new(ltime.WallSleeper)),
	sbhttpserver.NewConfigFromEnv,
	sbhttpserver.NewInstance,
)
