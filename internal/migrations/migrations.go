// Package migrations embeds the schema migrations for each supported
// database dialect. The sqlite and sqlite3 engines share one set.
package migrations

import (
	"embed"

	lsql "github.com/mltrack/mltrack/pkg/sql"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

func Sets() map[string]lsql.MigrationSet {
	sqlite := lsql.MigrationSet{FS: sqliteFS, Path: "sqlite"}
	return map[string]lsql.MigrationSet{
		lsql.EngineSqlite:   sqlite,
		lsql.EngineSqlite3:  sqlite,
		lsql.EnginePostgres: {FS: postgresFS, Path: "postgres"},
	}
}
