package artifact

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// FileInfo describes one entry under an artifact location.
type FileInfo struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"file_size,omitempty"`
}

// Store reads and writes artifact files below a location URI. The location
// is an experiment or run artifact root; path is relative to it.
type Store interface {
	Put(ctx context.Context, location string, path string, reader io.Reader) error
	Get(ctx context.Context, location string, path string) (io.ReadCloser, error)
	List(ctx context.Context, location string, path string) ([]FileInfo, error)
}

// Router dispatches to a backend based on the location's URI scheme.
// Scheme-less and file:// locations go to the local filesystem store.
type Router struct {
	local Store
	s3    Store
}

var _ Store = &Router{}

func NewRouter(local *LocalStore, s3 *S3Store) *Router {
	return &Router{
		local: local,
		s3:    s3,
	}
}

func (r *Router) backend(location string) (Store, error) {
	scheme := locationScheme(location)
	switch scheme {
	case "", "file":
		return r.local, nil
	case "s3":
		return r.s3, nil
	}
	return nil, errors.Errorf("unsupported artifact scheme %q", scheme)
}

func (r *Router) Put(ctx context.Context, location string, path string, reader io.Reader) error {
	backend, err := r.backend(location)
	if err != nil {
		return err
	}
	return backend.Put(ctx, location, path, reader)
}

func (r *Router) Get(ctx context.Context, location string, path string) (io.ReadCloser, error) {
	backend, err := r.backend(location)
	if err != nil {
		return nil, err
	}
	return backend.Get(ctx, location, path)
}

func (r *Router) List(ctx context.Context, location string, path string) ([]FileInfo, error) {
	backend, err := r.backend(location)
	if err != nil {
		return nil, err
	}
	return backend.List(ctx, location, path)
}

func locationScheme(location string) string {
	if !strings.Contains(location, "://") {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// CleanPath rejects traversal outside the artifact location.
func CleanPath(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "/")
	for _, part := range strings.Split(trimmed, "/") {
		if part == ".." {
			return "", errors.Errorf("invalid artifact path %q", path)
		}
	}
	return trimmed, nil
}
