// Package migrations embeds the goose migrations for the storefront
// PostgreSQL schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
