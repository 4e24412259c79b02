// Package sqlite registers the SQLite dialect (modernc.org/sqlite, pure Go).
// SQLite has no server-side databases: a run uses one file, and the schema
// initializer skips its CREATE DATABASE step.
package sqlite

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// Dialect implements storage.Dialect for SQLite.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func init() {
	storage.Register(Dialect{})
}

func (Dialect) Name() string       { return "sqlite" }
func (Dialect) DriverName() string { return "sqlite" }

// DSN returns c.Path; the database argument is ignored.
//
//	"hubspot.db"
//	"file:hubspot.db?_pragma=busy_timeout(5000)"
//	":memory:"
func (Dialect) DSN(c storage.ConnConfig, _ string) (string, error) {
	if strings.TrimSpace(c.Path) == "" {
		return "", fmt.Errorf("sqlite: path must not be empty")
	}
	return c.Path, nil
}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType maps kinds onto SQLite affinities; booleans are stored as 0/1.
func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt, ddl.KindBigInt, ddl.KindBool:
		return "INTEGER"
	case ddl.KindText:
		return "TEXT"
	}
	return ""
}

func (Dialect) CreateDatabaseSQL(string) string { return "" }

func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (Dialect) IsDatabaseExists(error) bool { return false }

// IsTableExists matches on the message: SQLite reports the condition with the
// generic SQLITE_ERROR code.
func (Dialect) IsTableExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func (d Dialect) ReportSQL(table string) string {
	return fmt.Sprintf(
		"SELECT %[1]s, date(%[2]s / 1000, 'unixepoch') AS day, COUNT(*) AS num_engagements "+
			"FROM %[3]s GROUP BY %[1]s, day ORDER BY %[1]s, day ASC",
		d.QuoteIdent("type"), d.QuoteIdent("createdAt"), d.QuoteIdent(table),
	)
}
