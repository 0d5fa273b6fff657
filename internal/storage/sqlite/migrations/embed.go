// Package migrations embeds the SQL schema migrations for the contact store.
package migrations

import "embed"

// FS holds the embedded .sql migration files.
//
//go:embed *.sql
var FS embed.FS
