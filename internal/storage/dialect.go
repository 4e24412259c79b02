// Package storage contains the dialect-agnostic database layer: a registry of
// SQL dialects, a single-connection DB handle, and the schema-less row writer.
//
// Backends (mysql, postgres, sqlite, mssql) register a Dialect at init time.
// Import internal/storage/all (or an individual backend) for its side
// effects to make a kind available to Open.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
)

// ConnConfig describes how to reach a database server. Backends use the
// fields they need: network backends read Host/Port/User/Password, SQLite
// reads Path.
type ConnConfig struct {
	Kind     string
	Host     string
	Port     int
	User     string
	Password string
	Path     string
}

// Dialect captures everything that differs between SQL backends.
type Dialect interface {
	ddl.Renderer

	// Name is the storage kind the dialect registers under (e.g. "mysql").
	Name() string
	// DriverName is the database/sql driver name.
	DriverName() string
	// DSN builds a connection string for the given database. An empty
	// database means "server default".
	DSN(c ConnConfig, database string) (string, error)
	// Placeholder returns the bind placeholder for the n-th (1-based) argument.
	Placeholder(n int) string

	// CreateDatabaseSQL returns the CREATE DATABASE statement for name, or ""
	// when the backend has no notion of databases.
	CreateDatabaseSQL(name string) string
	// DropTableSQL returns an unconditional DROP TABLE IF EXISTS statement.
	DropTableSQL(table string) string

	// IsDatabaseExists reports whether err is the backend's "database already
	// exists" error.
	IsDatabaseExists(err error) bool
	// IsTableExists reports whether err is the backend's "table already
	// exists" error.
	IsTableExists(err error) bool

	// ReportSQL returns the engagements-per-type-per-day aggregate over table.
	// Result columns: type, day, num_engagements; ordered by type, day.
	ReportSQL(table string) string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// Register registers (or replaces) a dialect under d.Name(). It is typically
// called from backend packages' init functions.
func Register(d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[d.Name()] = d
}

// Lookup returns the dialect registered for kind.
func Lookup(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no dialect registered for kind=%q (registered: %v)", kind, Kinds())
	}
	return d, nil
}

// Kinds lists the registered storage kinds in sorted order.
func Kinds() []string {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
