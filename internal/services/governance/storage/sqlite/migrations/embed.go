// Package migrations embeds governance storage schema migrations.
package migrations

import "embed"

// FS contains embedded SQLite migrations for governance storage.
//
//go:embed *.sql
var FS embed.FS
