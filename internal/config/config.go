package config

import (
	lconfig "github.com/mltrack/mltrack/pkg/config"
)

type Config struct {
	Migrate          bool  `env:"MIGRATE" envDefault:"true"`
	MigrationVersion *uint `env:"MIGRATION_VERSION"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
