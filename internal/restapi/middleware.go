package restapi

import (
	"github.com/mltrack/mltrack/internal/auth"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

// AuthMiddleware is the authentication middleware applied to every API
// handler. A named type so wire can provide it.
type AuthMiddleware sbhttpbase.MiddlewareFunc

func NewAuthMiddleware(cfg *auth.Config, registry *auth.Registry) (AuthMiddleware, error) {
	middleware, err := auth.Middleware(cfg, registry)
	if err != nil {
		return nil, err
	}
	return AuthMiddleware(middleware), nil
}

func (m AuthMiddleware) Register(path, method string) sbhttpbase.MiddlewareFunc {
	return sbhttpbase.MiddlewareFunc(m)
}

var _ sbhttpbase.RegistrableMiddleware = AuthMiddleware(nil)

// apiMiddleware is the standard chain: gzip codecs, then authentication.
// The in-flight limiter stays off; the tracking API is not latency bound.
func apiMiddleware(authmw AuthMiddleware) []sbhttpbase.RegistrableMiddleware {
	middleware := sbhttpserver.GetBaseInterceptors(sbhttpserver.BaseInterceptorsConfig{DisableLimiter: true}, nil)
	return append(middleware, authmw)
}
