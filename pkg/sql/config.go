package lsql

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	lconfig "github.com/mltrack/mltrack/pkg/config"
)

// Supported engines. "sqlite" is the pure-Go driver (modernc), "sqlite3" the
// cgo one (mattn); both are embedded stores. "postgres" connects through the
// pgx stdlib driver.
const (
	EngineSqlite   = "sqlite"
	EngineSqlite3  = "sqlite3"
	EnginePostgres = "postgres"
)

type Config struct {
	ConfigSecrets

	Engine         string        `env:"SQL_DB_ENGINE" envDefault:"sqlite3"`
	DatabaseName   string        `env:"SQL_DB_NAME" envDefault:"mltrack"`
	Address        string        `env:"SQL_DB_ADDRESS" envDefault:""`
	Options        string        `env:"SQL_DB_OPTIONS" envDefault:""`
	MaxLifetime    time.Duration `env:"SQL_DB_MAX_LIFETIME" envDefault:"30m"`
	MaxIdleConns   int           `env:"SQL_DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns   int           `env:"SQL_DB_MAX_OPEN_CONNS" envDefault:"20"`
	ConfigLocation string        `env:"SQL_DB_CONFIG_LOCATION"`
}

type ConfigSecrets struct {
	Username string `env:"SQL_DB_USERNAME"`
	Password string `env:"SQL_DB_PASSWORD"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ConfigLocation != "" {
		err = cfg.loadFile()
		if err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// DriverName maps the configured engine to the database/sql driver name.
func (cfg *Config) DriverName() string {
	switch strings.ToLower(cfg.Engine) {
	case EnginePostgres:
		return "pgx"
	default:
		return strings.ToLower(cfg.Engine)
	}
}

func (cfg *Config) IsEmbedded() bool {
	switch strings.ToLower(cfg.Engine) {
	case EngineSqlite, EngineSqlite3:
		return true
	}
	return false
}

func (cfg *Config) FullAddress() string {
	switch strings.ToLower(cfg.Engine) {
	case EnginePostgres:
		addr := fmt.Sprintf("postgres://%s:%s@%s/%s",
			cfg.Username,
			cfg.Password,
			cfg.Address,
			cfg.DatabaseName)
		if cfg.Options != "" {
			addr = addr + "?" + cfg.Options
		}
		return addr
	case EngineSqlite, EngineSqlite3:
		if cfg.Address != "" {
			return cfg.Address
		}
		return ":memory:"
	default:
		return ""
	}
}

func (cfg *Config) loadFile() error {
	f, err := os.Open(cfg.ConfigLocation)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, &cfg.ConfigSecrets); err != nil {
		return err
	}

	return nil
}
