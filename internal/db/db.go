// Package db embeds the billing schema migrations.
package db

import "embed"

// Migrations holds the goose migrations under the "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS
