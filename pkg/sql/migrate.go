package lsql

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MigrationSet is a directory of NNN_name.up.sql / NNN_name.down.sql files
// embedded into the binary, one set per engine dialect.
type MigrationSet struct {
	FS   embed.FS
	Path string
}

type Migration struct {
	DB      *sql.DB
	cfg     *Config
	migrate *migrate.Migrate
	set     MigrationSet
}

type migrationLogger struct{}

func (m migrationLogger) Printf(format string, v ...interface{}) {
	log.Printf("migration: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (m migrationLogger) Verbose() bool {
	return true
}

func NewMigration(cfg *Config, sets map[string]MigrationSet) (*Migration, error) {
	set, ok := sets[strings.ToLower(cfg.Engine)]
	if !ok {
		return nil, errors.Errorf("migration set not found for DB engine %q", strings.ToLower(cfg.Engine))
	}

	source, err := iofs.New(set.FS, set.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.DriverName(), cfg.FullAddress())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	var driver database.Driver
	switch strings.ToLower(cfg.Engine) {
	case EngineSqlite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case EngineSqlite3:
		driver, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	case EnginePostgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		return nil, errors.Errorf("unknown engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	mig, err := migrate.NewWithInstance("iofs", source, cfg.DatabaseName, driver)
	if err != nil {
		return nil, err
	}
	mig.Log = migrationLogger{}

	return &Migration{
		DB:      db,
		cfg:     cfg,
		migrate: mig,
		set:     set,
	}, nil
}

// Run migrates to desiredVersion, or to the latest migration when nil.
// Assumes migrations come in up/down pairs.
func (m *Migration) Run(desiredVersion *uint) error {
	if desiredVersion == nil {
		names, err := fs.ReadDir(m.set.FS, m.set.Path)
		if err != nil {
			return errors.WithStack(err)
		}
		latestVersion := uint(len(names) / 2)
		desiredVersion = &latestVersion
	}

	version, dirty, err := m.migrate.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return errors.WithStack(err)
	}

	if dirty {
		// Step back over the partially applied migration and retry.
		if version > 1 {
			if err := m.migrate.Force(int(version) - 1); err != nil {
				return errors.WithStack(err)
			}
		} else {
			if err := m.migrate.Drop(); err != nil {
				return errors.WithStack(err)
			}
		}
	}

	if err := m.migrate.Migrate(*desiredVersion); err != nil && err != migrate.ErrNoChange {
		return errors.WithStack(err)
	}

	return nil
}

// Close releases the migration's dedicated connection.
func (m *Migration) Close() error {
	return m.DB.Close()
}
