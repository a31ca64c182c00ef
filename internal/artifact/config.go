package artifact

import (
	lconfig "github.com/mltrack/mltrack/pkg/config"
)

type Config struct {
	// RootLocation is the default artifact location assigned to experiments
	// that do not request one. Either a local directory or an s3:// URI.
	RootLocation string `env:"ARTIFACT_ROOT" envDefault:"./mlartifacts"`

	S3Endpoint       string `env:"ARTIFACT_S3_ENDPOINT" envDefault:""`
	S3Region         string `env:"ARTIFACT_S3_REGION" envDefault:"us-east-1"`
	S3ForcePathStyle bool   `env:"ARTIFACT_S3_FORCE_PATH_STYLE" envDefault:"false"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := lconfig.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
