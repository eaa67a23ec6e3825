// Package migrations embeds the goose migrations shared by the Postgres and
// SQLite backends.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
