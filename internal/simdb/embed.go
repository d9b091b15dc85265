package simdb

import "embed"

// MigrationsFS holds the schema migrations compiled into the binary, so
// deployments never depend on a migrations directory being present on disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
