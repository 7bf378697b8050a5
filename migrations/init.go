package migrations

import (
	"io/fs"

	sssp "github.com/fieldsafe/go-sssp"
)

func init() {
	coreFS, err := fs.Sub(sssp.GetCoreMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
