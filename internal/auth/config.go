package auth

import (
	"time"

	"github.com/mltrack/mltrack/internal/store"
	lconfig "github.com/mltrack/mltrack/pkg/config"
)

type Config struct {
	// Method selects the registered authenticator.
	Method string `env:"AUTH_METHOD" envDefault:"basic"`

	// DefaultLevel applies when a user holds no explicit grant on a resource.
	DefaultLevel store.PermissionLevel `env:"AUTH_DEFAULT_PERMISSION" envDefault:"READ"`

	AdminUsername string `env:"AUTH_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"AUTH_ADMIN_PASSWORD" envDefault:"password"`

	GrantResyncFrequency time.Duration `env:"AUTH_GRANT_RESYNC_FREQUENCY" envDefault:"30s"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := lconfig.Parse(&cfg); err != nil {
		return nil, err
	}
	if !store.ValidLevel(cfg.DefaultLevel) {
		return nil, store.NewSchemaValidation("unknown default permission level %q", cfg.DefaultLevel)
	}
	return &cfg, nil
}
