package migrations

import "embed"

// FS contains the plain-SQL tracker migrations.
//
//go:embed *.sql
var FS embed.FS
