package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	ltime "github.com/mltrack/mltrack/pkg/time"
)

const runsScheme = "runs:/"

// Resolver materializes the configured model location into a local
// directory. Local paths resolve in place; runs:/<run_id>/<path>
// locations are downloaded from the tracking server's artifact API,
// retrying while the server comes up.
type Resolver struct {
	cfg     *Config
	fs      afero.Fs
	client  *http.Client
	sleeper ltime.Sleeper
}

func NewResolver(cfg *Config, sleeper ltime.Sleeper) *Resolver {
	return &Resolver{
		cfg:     cfg,
		fs:      afero.NewOsFs(),
		client:  &http.Client{},
		sleeper: sleeper,
	}
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if !strings.HasPrefix(r.cfg.ModelLocation, runsScheme) {
		return r.cfg.ModelLocation, nil
	}

	rest := strings.TrimPrefix(r.cfg.ModelLocation, runsScheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.Errorf("malformed model location %q, want runs:/<run_id>/<path>", r.cfg.ModelLocation)
	}
	runId, artifactPath := parts[0], parts[1]

	dir, err := afero.TempDir(r.fs, "", "mlserve-model")
	if err != nil {
		return "", errors.WithStack(err)
	}

	var lastErr error
	for attempt := uint(0); attempt < r.cfg.ResolveAttempts; attempt++ {
		if attempt > 0 {
			r.sleeper.Sleep(r.cfg.ResolveBackoff)
		}
		lastErr = r.download(ctx, runId, artifactPath, dir)
		if lastErr == nil {
			return dir, nil
		}
		log.Printf("model resolve attempt %d failed: %s", attempt+1, lastErr.Error())
	}
	return "", errors.Wrapf(lastErr, "failed to resolve model %q", r.cfg.ModelLocation)
}

type artifactListing struct {
	Files []struct {
		Path  string `json:"path"`
		IsDir bool   `json:"is_dir"`
	} `json:"files"`
}

func (r *Resolver) download(ctx context.Context, runId, artifactPath, dir string) error {
	pending := []string{artifactPath}
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		var listing artifactListing
		if err := r.getJSON(ctx, "/api/2.0/mltrack/artifacts/list", runId, current, &listing); err != nil {
			return err
		}
		for _, file := range listing.Files {
			if file.IsDir {
				pending = append(pending, file.Path)
				continue
			}
			if err := r.fetchFile(ctx, runId, artifactPath, file.Path, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) getJSON(ctx context.Context, endpoint, runId, artifactPath string, result interface{}) error {
	response, err := r.get(ctx, endpoint, runId, artifactPath)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	return json.NewDecoder(response.Body).Decode(result)
}

func (r *Resolver) fetchFile(ctx context.Context, runId, rootPath, filePath, dir string) error {
	response, err := r.get(ctx, "/api/2.0/mltrack/artifacts/get", runId, filePath)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	target := path.Join(dir, strings.TrimPrefix(filePath, rootPath+"/"))
	if err := r.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return errors.WithStack(err)
	}
	file, err := r.fs.Create(target)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()
	_, err = io.Copy(file, response.Body)
	return errors.WithStack(err)
}

func (r *Resolver) get(ctx context.Context, endpoint, runId, artifactPath string) (*http.Response, error) {
	query := url.Values{}
	query.Set("run_id", runId)
	query.Set("path", artifactPath)
	target := strings.TrimSuffix(r.cfg.TrackingURL, "/") + endpoint + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if r.cfg.TrackingUsername != "" {
		request.SetBasicAuth(r.cfg.TrackingUsername, r.cfg.TrackingPassword)
	}
	response, err := r.client.Do(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, fmt.Errorf("tracking server returned %d for %s", response.StatusCode, endpoint)
	}
	return response, nil
}
