package tracking

import (
	lconfig "github.com/mltrack/mltrack/pkg/config"
)

type Config struct {
	// ArtifactProxyEnabled makes the server stream artifact bytes itself.
	// When disabled clients receive the backing URI and talk to storage
	// directly.
	ArtifactProxyEnabled bool `env:"ARTIFACT_PROXY_ENABLED" envDefault:"true"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := lconfig.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
