package auth

import (
	"github.com/mltrack/mltrack/internal/store"
	lhttp "github.com/mltrack/mltrack/pkg/http"
	sbhttp "github.com/mltrack/mltrack/pkg/serverbase/http"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

// Middleware authenticates every request and stores the principal in the
// request context. Requests without credentials are rejected up front.
func Middleware(cfg *Config, registry *Registry) (sbhttpbase.MiddlewareFunc, error) {
	authenticator, err := registry.Get(cfg.Method)
	if err != nil {
		return nil, err
	}
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		principal, err := authenticator.Authenticate(request.Request)
		if err != nil {
			if store.IsUnauthenticated(err) {
				request.Writer.Header().Set("WWW-Authenticate", `Basic realm="mltrack"`)
			}
			herr := lhttp.FromError(err)
			sbhttp.ReturnError(request.Writer, herr.Code, herr.Message, err)
			return
		}
		if principal == nil {
			request.Writer.Header().Set("WWW-Authenticate", `Basic realm="mltrack"`)
			sbhttp.ReturnError(request.Writer, 401, "authentication required", nil)
			return
		}
		ctx := WithPrincipal(request.Request.Context(), principal)
		next(request.WithContext(ctx))
	}, nil
}
