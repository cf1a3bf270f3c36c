// Package migrations expone los archivos SQL de goose embebidos en el binario.
package migrations

import "embed"

// FS migraciones en orden de versión.
//
//go:embed *.sql
var FS embed.FS
