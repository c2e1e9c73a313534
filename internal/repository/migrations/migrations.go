// Package migrations содержит SQL-миграции схемы для goose.
package migrations

import "embed"

// FS содержит файлы миграций.
//
//go:embed *.sql
var FS embed.FS
