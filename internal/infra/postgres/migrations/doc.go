// Package migrations holds the Postgres schema. Each migration lives in its own
// NNNN_name.go file, which bun uses as the migration name.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
