package gateway

import (
	"time"

	lconfig "github.com/mltrack/mltrack/pkg/config"
)

type Config struct {
	// ModelLocation is either a local directory holding an MLmodel file
	// plus the model artifacts, or a runs:/<run_id>/<path> URI resolved
	// against the tracking server.
	ModelLocation string `env:"MODEL_LOCATION" envDefault:"./model"`

	// Tracking server connection, only needed for runs:/ locations.
	TrackingURL      string `env:"TRACKING_URL"`
	TrackingUsername string `env:"TRACKING_USERNAME"`
	TrackingPassword string `env:"TRACKING_PASSWORD"`

	// Flavor overrides the flavor picked from the MLmodel file.
	Flavor string `env:"MODEL_FLAVOR"`

	// BackendURL is where the proxy flavor forwards prediction requests.
	BackendURL string `env:"MODEL_BACKEND_URL" envDefault:"http://127.0.0.1:8502/invocations"`

	ResolveAttempts uint          `env:"MODEL_RESOLVE_ATTEMPTS" envDefault:"10"`
	ResolveBackoff  time.Duration `env:"MODEL_RESOLVE_BACKOFF" envDefault:"3s"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := lconfig.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
