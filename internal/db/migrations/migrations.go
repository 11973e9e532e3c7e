// Package migrations embebe los archivos SQL consumidos por goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
