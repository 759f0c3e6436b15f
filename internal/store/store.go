// Package store persists postings. SQLite is the default backend; Postgres
// serves shared deployments and the in-memory store backs dry runs.
package store

import (
	"context"
	"fmt"

	"github.com/amishk599/jobrake/internal/model"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open returns the store selected by driver. path is used by sqlite, dsn by
// postgres.
func Open(ctx context.Context, driver, path, dsn string) (model.PostingStore, error) {
	switch driver {
	case "", DriverSQLite:
		return NewSQLiteStore(path)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
