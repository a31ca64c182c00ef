package restapi

import (
	"context"
	"io"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/mltrack/mltrack/internal/artifact"
	"github.com/mltrack/mltrack/internal/tracking"
	lconfig "github.com/mltrack/mltrack/pkg/config"
	"github.com/mltrack/mltrack/pkg/http/interceptors"
	sbhttp "github.com/mltrack/mltrack/pkg/serverbase/http"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
	sbhttpserver "github.com/mltrack/mltrack/pkg/serverbase/http/server"
)

var _ sbhttpserver.Server = &ArtifactsAPI{}

type ArtifactsConfig struct {
	// MaxUploadSize caps a single artifact upload, e.g. "512Mi".
	MaxUploadSize resource.Quantity `env:"ARTIFACT_MAX_UPLOAD_SIZE" envDefault:"1Gi"`
}

func NewArtifactsConfigFromEnv() (*ArtifactsConfig, error) {
	var cfg ArtifactsConfig
	if err := lconfig.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type ArtifactsAPI struct {
	cfg    *ArtifactsConfig
	svc    *tracking.Service
	authmw AuthMiddleware
}

func NewArtifactsAPI(cfg *ArtifactsConfig, svc *tracking.Service, authmw AuthMiddleware) *ArtifactsAPI {
	return &ArtifactsAPI{cfg: cfg, svc: svc, authmw: authmw}
}

func (api *ArtifactsAPI) Ready(ctx context.Context) error { return nil }

func (api *ArtifactsAPI) Live(ctx context.Context) error { return nil }

func (api *ArtifactsAPI) Shutdown() error { return nil }

func (api *ArtifactsAPI) GetHandlers() []sbhttpserver.HandleDescription {
	middleware := apiMiddleware(api.authmw)
	uploadMiddleware := append(apiMiddleware(api.authmw), interceptors.HttpServerLimitSizeInterceptor(api.cfg.MaxUploadSize))
	return []sbhttpserver.HandleDescription{
		{Path: apiPrefix + "/artifacts/list", Method: "GET", Handler: api.list, Middleware: middleware},
		{Path: apiPrefix + "/artifacts/get", Method: "GET", Handler: api.get, Middleware: middleware},
		{Path: apiPrefix + "/artifacts/upload", Method: "POST", Handler: api.upload, Middleware: uploadMiddleware},
	}
}

type artifactRequest struct {
	RunId string `json:"run_id"`
	Path  string `json:"path"`
}

func (api *ArtifactsAPI) list(request *sbhttpbase.Request) {
	var query artifactRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	files, location, err := api.svc.ListArtifacts(request.Request.Context(), query.RunId, query.Path)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, map[string]interface{}{
		"root_uri": location,
		"files":    filesPayload(files),
	})
}

func filesPayload(files []artifact.FileInfo) []artifact.FileInfo {
	if files == nil {
		return []artifact.FileInfo{}
	}
	return files
}

func (api *ArtifactsAPI) get(request *sbhttpbase.Request) {
	var query artifactRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	reader, err := api.svc.GetArtifact(request.Request.Context(), query.RunId, query.Path)
	if err != nil {
		writeError(request, err)
		return
	}
	defer reader.Close()
	request.Writer.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(request.Writer, reader); err != nil {
		sbhttp.ReturnError(request.Writer, 500, "failed to stream artifact", err)
	}
}

func (api *ArtifactsAPI) upload(request *sbhttpbase.Request) {
	var query artifactRequest
	if err := decodeQuery(request, &query); err != nil {
		writeError(request, err)
		return
	}
	err := api.svc.UploadArtifact(request.Request.Context(), query.RunId, query.Path, request.Request.Body)
	if err != nil {
		writeError(request, err)
		return
	}
	writeJSON(request, struct{}{})
}
