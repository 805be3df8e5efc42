// Package migrations embeds the goose SQL migrations of the feed schema.
//
// Files are named YYYYMMDDHHMMSS_description.sql and applied in order on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
