// Package migrations embeds the schema for every supported driver.
// Files follow the golang-migrate naming scheme: NNNNNN_name.{up,down}.sql.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
