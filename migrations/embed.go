// Package migrations embeds the SQL schema files into the binary so that
// `mokkiwahti migrate` and `mokkiwahti serve` need nothing on disk.
package migrations

import (
	"embed"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
