// Package all registers every snapshot storage backend with the factory.
//
// Commands blank-import this package so a config or flag can select any
// backend kind without per-backend wiring. The mssql driver import lives here
// too, since the backend package itself stays driver-agnostic.
package all

import (
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	_ "ratewatch/internal/storage/mssql"
	_ "ratewatch/internal/storage/postgres"
	_ "ratewatch/internal/storage/sqlite"
)
