// Package migrations embeds the catalog schema into the binary so the
// service can migrate its SQLite database without SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/meterlink/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.Source = files
}
