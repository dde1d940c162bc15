package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// Used by the migrate runner (callsync migrate, and the API on startup).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
