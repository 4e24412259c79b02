// Package all wires every built-in storage dialect into the storage registry.
//
// It exists purely for side effects: importing it (usually as a blank import
// from cmd/hubetl) runs the init functions of each backend, making these
// kinds available to storage.Open:
//
//   - "mysql"    (internal/storage/mysql)
//   - "postgres" (internal/storage/postgres)
//   - "mssql"    (internal/storage/mssql)
//   - "sqlite"   (internal/storage/sqlite)
package all

import (
	_ "github.com/TheF1rstPancake/hubspot/internal/storage/mssql"
	_ "github.com/TheF1rstPancake/hubspot/internal/storage/mysql"
	_ "github.com/TheF1rstPancake/hubspot/internal/storage/postgres"
	_ "github.com/TheF1rstPancake/hubspot/internal/storage/sqlite"
)
