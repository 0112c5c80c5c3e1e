package library

import (
	"context"
	"embed"

	"media-indexer/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the library schema to the main database. It must run
// before any repository is used.
func Migrate(ctx context.Context, db *store.DB) error {
	migrations, err := store.LoadMigrations(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	return db.Migrate(ctx, migrations)
}
