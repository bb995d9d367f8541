package migrations

import "embed"

// MigrationsFS embeds the SQL migration files for goose.
//
//go:embed *.sql
var MigrationsFS embed.FS
