package artifact

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mltrack/mltrack/internal/store"
)

// LocalStore keeps artifacts on the server's filesystem. Scheme-less
// locations resolve relative to the configured root.
type LocalStore struct {
	fs   afero.Fs
	root string
}

var _ Store = &LocalStore{}

func NewLocalStore(cfg *Config) *LocalStore {
	return &LocalStore{
		fs:   afero.NewOsFs(),
		root: cfg.RootLocation,
	}
}

func (s *LocalStore) resolve(location string, path string) (string, error) {
	cleaned, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	base := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", err
		}
		base = u.Path
	} else if !filepath.IsAbs(location) {
		base = filepath.Join(s.root, location)
	}
	return filepath.Join(base, filepath.FromSlash(cleaned)), nil
}

func (s *LocalStore) Put(ctx context.Context, location string, path string, reader io.Reader) error {
	target, err := s.resolve(location, path)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	file, err := s.fs.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

func (s *LocalStore) Get(ctx context.Context, location string, path string) (io.ReadCloser, error) {
	target, err := s.resolve(location, path)
	if err != nil {
		return nil, err
	}
	file, err := s.fs.Open(target)
	if os.IsNotExist(err) {
		return nil, store.NewNotFound("artifact %s not found", path)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *LocalStore) List(ctx context.Context, location string, path string) ([]FileInfo, error) {
	target, err := s.resolve(location, path)
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, target)
	if os.IsNotExist(err) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	cleaned, _ := CleanPath(path)
	response := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info := FileInfo{
			Path:  strings.TrimPrefix(cleaned+"/"+entry.Name(), "/"),
			IsDir: entry.IsDir(),
		}
		if !entry.IsDir() {
			info.Size = entry.Size()
		}
		response = append(response, info)
	}
	return response, nil
}
