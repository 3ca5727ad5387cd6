// Package migrations embeds the schema so the server binary can migrate
// without a checkout of this directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
