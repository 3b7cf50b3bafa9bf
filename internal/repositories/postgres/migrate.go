package postgres

import (
	"context"

	"supportmatch/pkg/database"
)

// AutoMigrate creates the tables and the partial indexes the matcher relies on.
func AutoMigrate(ctx context.Context, pg *database.Postgres) error {
	return pg.Migrate(ctx, Models(), IndexStatements())
}
