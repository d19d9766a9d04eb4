// Package migrations embeds the bootstrap SQL applied by goose before the
// metadata-driven collection upgrade runs.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
