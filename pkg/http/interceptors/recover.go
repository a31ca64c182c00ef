package interceptors

import (
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

func HttpServerRecoverInterceptor() sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		defer func() {
			if r := recover(); r != nil {
				request.Writer.WriteHeader(500)
				request.Writer.Write([]byte("Internal server error"))
			}
		}()
		next(request)
	}
}
