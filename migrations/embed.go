// Package migrations holds the SQL schema migrations applied by goose.
package migrations

import "embed"

// FS contains every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
