// Package pgmigrations embeds the schema of the remote events table written
// by the PostgreSQL sync adapter.
package pgmigrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
