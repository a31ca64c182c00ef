package context_cancel

import (
	"context"

	"github.com/mltrack/mltrack/pkg/http/wrappers"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

type Interceptor struct{}

func (interceptor Interceptor) ToHTTP() sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		wrapper := wrappers.CustomizableResponseWriter{
			Response: request.Writer,
			OnWriteHeader: func(w *wrappers.CustomizableResponseWriter, code int) {
				if err := request.Request.Context().Err(); err != nil {
					if err == context.Canceled || err == context.DeadlineExceeded {
						code = 499
					}
				}
				request.Writer.WriteHeader(code)
			},
		}

		next(request.WithWriter(&wrapper))
	}
}
