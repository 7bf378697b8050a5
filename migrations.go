package sssp

import "embed"

// MigrationsFS contains SQL migrations for both PostgreSQL and SQLite.
//
// The migrations are organized in a dialect-aware structure:
//   - Root files (data/sql/migrations/*.sql) contain PostgreSQL migrations
//   - SQLite overrides are in data/sql/migrations/sqlite/*.sql
//
// Dialect-aware loaders should select the sqlite subtree when running against
// SQLite; everything else uses the root files.
//
// Usage:
//
//	import "io/fs"
//	import sssp "github.com/fieldsafe/go-sssp"
//
//	migrationsFS, _ := fs.Sub(sssp.GetCoreMigrationsFS(), "data/sql/migrations")
//
//go:embed data/sql/migrations
var MigrationsFS embed.FS

// CoreMigrationsFS contains the plan persistence migrations (plans, shares,
// tokens, activity) for both supported dialects.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var CoreMigrationsFS embed.FS

// GetCoreMigrationsFS exposes the dialect-aware migration tree.
func GetCoreMigrationsFS() embed.FS {
	return CoreMigrationsFS
}
