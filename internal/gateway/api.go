// Package gateway serves predictions for one loaded model behind a
// stable invocation contract, independent of the model's native input
// shape.
package gateway

import (
	"context"
	"io"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"

	lhttp "github.com/mltrack/mltrack/pkg/http"
	"github.com/mltrack/mltrack/pkg/http/wrappers"
	context_cancel "github.com/mltrack/mltrack/pkg/interceptors/context-cancel"
	interceptors_inflight "github.com/mltrack/mltrack/pkg/interceptors/in-flight"
	sbhttp "github.com/mltrack/mltrack/pkg/serverbase/http"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

const Version = "2.0"

// LoadedModel is the resolved model plus its manifest.
type LoadedModel struct {
	Meta  *Metadata
	Model Model
	Dir   string
}

func NewLoadedModel(ctx context.Context, cfg *Config, resolver *Resolver) (*LoadedModel, error) {
	dir, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := LoadMetadata(resolver.fs, dir)
	if err != nil {
		return nil, err
	}
	model, err := loadModel(cfg, meta, dir)
	if err != nil {
		return nil, err
	}
	return &LoadedModel{Meta: meta, Model: model, Dir: dir}, nil
}

func NewZapLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

var _ sbhttpserver.Server = &API{}

type API struct {
	loaded  *LoadedModel
	limiter *interceptors_inflight.Interceptor
	logger  *zap.Logger
}

func NewAPI(loaded *LoadedModel, limiter *interceptors_inflight.Interceptor, logger *zap.Logger) *API {
	return &API{
		loaded:  loaded,
		limiter: limiter,
		logger:  logger,
	}
}

func (api *API) Ready(ctx context.Context) error { return nil }

func (api *API) Live(ctx context.Context) error { return nil }

func (api *API) Shutdown() error {
	return api.logger.Sync()
}

func (api *API) GetHandlers() []sbhttpserver.HandleDescription {
	// The limiter guards only the prediction path. Health endpoints
	// must answer while predictions are in flight.
	invocations := append(
		sbhttpserver.GetBaseInterceptors(sbhttpserver.BaseInterceptorsConfig{DisableLimiter: true}, nil),
		requestLog(api.logger),
		context_cancel.Interceptor{}.ToHTTP(),
		api.limiter.ToHTTP(),
	)
	return []sbhttpserver.HandleDescription{
		{Path: "/invocations", Method: "POST", Handler: api.invocations, Middleware: invocations},
		{Path: "/ping", Method: "GET", Handler: api.ping},
		{Path: "/health", Method: "GET", Handler: api.ping},
		{Path: "/version", Method: "GET", Handler: api.version},
	}
}

func (api *API) ping(request *sbhttpbase.Request) {
	request.Writer.WriteHeader(200)
}

func (api *API) version(request *sbhttpbase.Request) {
	_ = sbhttp.WriteJson(request.Writer, 200, map[string]string{
		"version":    Version,
		"model_uuid": api.loaded.Meta.ModelUUID,
	})
}

func (api *API) invocations(request *sbhttpbase.Request) {
	input, err := api.decode(request)
	if err != nil {
		writeError(request, err)
		return
	}

	signature := api.loaded.Meta.Signature
	if err := coerceInput(input, signature); err != nil {
		writeError(request, err)
		return
	}
	params, err := validateParams(input.Params, signature)
	if err != nil {
		writeError(request, err)
		return
	}
	input.Params = params

	result, err := api.loaded.Model.Predict(request.Request.Context(), input)
	if err != nil {
		writeError(request, err)
		return
	}
	_ = sbhttp.WriteJson(request.Writer, 200, map[string]interface{}{"predictions": result})
}

func (api *API) decode(request *sbhttpbase.Request) (*Input, error) {
	contentType := request.Request.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	switch {
	case contentType == "text/csv", contentType == "application/csv":
		frame, err := decodeCSV(request.Request.Body, api.loaded.Meta.Signature)
		if err != nil {
			return nil, err
		}
		return &Input{Frame: frame}, nil
	case contentType == "application/json", strings.HasSuffix(contentType, "+json"):
		body, err := io.ReadAll(request.Request.Body)
		if err != nil {
			return nil, err
		}
		return decodeJSONPayload(body)
	}
	return nil, lhttp.NewBadRequest("unsupported content type " + contentType)
}

func writeError(request *sbhttpbase.Request, err error) {
	herr := lhttp.FromError(err)
	if herr.Err != nil {
		sbhttp.ReturnError(request.Writer, 500, "internal server error", herr.Err)
		return
	}
	sbhttp.ReturnError(request.Writer, herr.Code, herr.Message, herr)
}

// requestLog emits one structured line per request with the final
// status and latency.
func requestLog(logger *zap.Logger) sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		start := time.Now()
		writer := &wrappers.CustomizableResponseWriter{
			Response: request.Writer,
			Code:     200,
		}
		next(request.WithWriter(writer))
		logger.Info("request",
			zap.String("method", request.Request.Method),
			zap.String("path", request.Request.URL.Path),
			zap.Int("status", writer.Code),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
