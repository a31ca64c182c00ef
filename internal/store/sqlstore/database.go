package sqlstore

import (
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Database struct {
	experiments store.ExperimentService
	runs        store.RunService
	metrics     store.MetricService
	params      store.ParamService
	models      store.ModelService
	users       store.UserService
	permissions store.PermissionService
	flags       store.FlagService
}

var _ store.Database = &Database{}

func NewInstance(cfg *lsql.Config) (*lsql.Instance, error) {
	if cfg.DatabaseName == "" {
		panic("database name is empty")
	}
	log.Printf("connecting to %s database %s", cfg.Engine, cfg.DatabaseName)
	return lsql.NewInstance(cfg)
}

func NewDatabase(experiments store.ExperimentService, runs store.RunService,
	metrics store.MetricService, params store.ParamService, models store.ModelService,
	users store.UserService, permissions store.PermissionService, flags store.FlagService) store.Database {
	return &Database{
		experiments: experiments,
		runs:        runs,
		metrics:     metrics,
		params:      params,
		models:      models,
		users:       users,
		permissions: permissions,
		flags:       flags,
	}
}

func (d *Database) Experiments() store.ExperimentService { return d.experiments }

func (d *Database) Runs() store.RunService { return d.runs }

func (d *Database) Metrics() store.MetricService { return d.metrics }

func (d *Database) Params() store.ParamService { return d.params }

func (d *Database) Models() store.ModelService { return d.models }

func (d *Database) Users() store.UserService { return d.users }

func (d *Database) Permissions() store.PermissionService { return d.permissions }

func (d *Database) Flags() store.FlagService { return d.flags }
