package sqlstore

import (
	"github.com/mltrack/mltrack/internal/migrations"
	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
	ltest "github.com/mltrack/mltrack/pkg/test"
)

// NewTestingDatabase builds a fully migrated sqlite-backed database on a
// temporary file.
func NewTestingDatabase(t ltest.T) (store.Database, error) {
	cfg, err := lsql.NewTestingConfig(t)
	if err != nil {
		return nil, err
	}
	migration, err := lsql.NewMigration(cfg, migrations.Sets())
	if err != nil {
		return nil, err
	}
	if err := migration.Run(nil); err != nil {
		return nil, err
	}
	_ = migration.DB.Close()

	instance, err := lsql.NewInstance(cfg)
	if err != nil {
		return nil, err
	}
	return NewDatabase(
		NewExperiments(instance), NewRuns(instance), NewMetrics(instance),
		NewParams(instance), NewModels(instance), NewUsers(instance),
		NewPermissions(instance), NewFlags(instance)), nil
}
