package db

import "embed"

// MigrationFS embeds the Postgres migrations applied by internal/db/migrate
// and `staffguard migrate`.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
