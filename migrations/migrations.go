// Package migrations contains the embedded SQL migrations for the homebid database.
package migrations

import (
	"embed"
)

//go:embed *.sql
var FS embed.FS
