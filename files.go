package sssp

import "embed"

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// GetMigrationsFS exposes the PostgreSQL migration files so host applications
// can register them with their migration runner.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
