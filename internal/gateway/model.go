package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/mltrack/mltrack/internal/store"
)

// Model is one loaded model behind the gateway. Predict is invoked
// exactly once per request and may block; implementations must be safe
// for concurrent use and must not share locks with the health path.
type Model interface {
	Predict(ctx context.Context, input *Input) (interface{}, error)
}

// Loader builds a model from its resolved artifact directory.
type Loader func(cfg *Config, meta *Metadata, dir string) (Model, error)

var loaders = map[string]Loader{
	"python_function": newProxyModel,
}

// RegisterFlavor installs a loader for a flavor name. Call before the
// model is resolved, typically from an init function.
func RegisterFlavor(name string, loader Loader) {
	loaders[name] = loader
}

func loadModel(cfg *Config, meta *Metadata, dir string) (Model, error) {
	if cfg.Flavor != "" {
		loader, ok := loaders[cfg.Flavor]
		if !ok {
			return nil, errors.Errorf("no loader registered for flavor %q", cfg.Flavor)
		}
		return loader(cfg, meta, dir)
	}
	for name := range meta.Flavors {
		if loader, ok := loaders[name]; ok {
			return loader(cfg, meta, dir)
		}
	}
	return nil, errors.Errorf("no loader registered for any of the model's flavors")
}

// proxyModel forwards normalized payloads to the model's native scoring
// process over HTTP. The backend speaks the same invocation protocol,
// so the forwarded body is the canonical JSON shape of the input.
type proxyModel struct {
	url    string
	client *http.Client
}

func newProxyModel(cfg *Config, meta *Metadata, dir string) (Model, error) {
	return &proxyModel{
		url:    cfg.BackendURL,
		client: &http.Client{},
	}, nil
}

func (m *proxyModel) Predict(ctx context.Context, input *Input) (interface{}, error) {
	body, err := json.Marshal(forwardPayload(input))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var result interface{}
	var rejected error
	err = retry.Do(func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		request.Header.Set("Content-Type", "application/json")
		response, err := m.client.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()
		content, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}
		if response.StatusCode >= 500 {
			return errors.Errorf("backend returned %d", response.StatusCode)
		}
		if response.StatusCode >= 400 {
			rejected = store.NewSchemaValidation("backend rejected payload: %s", string(content))
			return retry.Unrecoverable(rejected)
		}
		return json.Unmarshal(content, &result)
	}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		if rejected != nil {
			return nil, rejected
		}
		return nil, store.NewBackendUnavailable("model backend unreachable: %s", err.Error())
	}
	return result, nil
}

func forwardPayload(input *Input) map[string]interface{} {
	switch {
	case input.Frame != nil:
		payload := map[string]interface{}{"dataframe_split": input.Frame}
		if input.Params != nil {
			payload["params"] = input.Params
		}
		return payload
	case input.Instances != nil:
		payload := map[string]interface{}{"instances": input.Instances}
		if input.Params != nil {
			payload["params"] = input.Params
		}
		return payload
	default:
		return input.Raw
	}
}
