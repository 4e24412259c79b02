// Package postgres registers the PostgreSQL dialect, backed by pgx through
// its database/sql adapter.
package postgres

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// SQLSTATE codes the schema initializer tolerates.
const (
	codeDuplicateDatabase = "42P04"
	codeDuplicateTable    = "42P07"
	defaultPort           = 5432
)

// Dialect implements storage.Dialect for PostgreSQL.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func init() {
	storage.Register(Dialect{})
}

func (Dialect) Name() string       { return "postgres" }
func (Dialect) DriverName() string { return "pgx" }

// DSN builds a postgres:// URL. TLS is disabled: the server is expected to be
// local, like the MySQL default.
func (Dialect) DSN(c storage.ConnConfig, database string) (string, error) {
	if c.User == "" {
		return "", fmt.Errorf("postgres: user must not be empty")
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String(), nil
}

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// QuoteIdent double-quotes name so camelCase column names keep their case.
func (Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindBigInt:
		return "BIGINT"
	case ddl.KindBool:
		return "BOOLEAN"
	case ddl.KindText:
		return "TEXT"
	}
	return ""
}

func (d Dialect) CreateDatabaseSQL(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s ENCODING 'UTF8'", d.QuoteIdent(name))
}

func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (Dialect) IsDatabaseExists(err error) bool { return hasCode(err, codeDuplicateDatabase) }
func (Dialect) IsTableExists(err error) bool    { return hasCode(err, codeDuplicateTable) }

func (d Dialect) ReportSQL(table string) string {
	return fmt.Sprintf(
		"SELECT %[1]s, to_timestamp(%[2]s / 1000.0)::date AS day, COUNT(*) AS num_engagements "+
			"FROM %[3]s GROUP BY %[1]s, day ORDER BY %[1]s, day ASC",
		d.QuoteIdent("type"), d.QuoteIdent("createdAt"), d.QuoteIdent(table),
	)
}

func hasCode(err error, code string) bool {
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == code
}
