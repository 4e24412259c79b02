// Package mssql registers the Microsoft SQL Server dialect, backed by
// go-mssqldb.
package mssql

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// Server error numbers the schema initializer tolerates.
const (
	errDatabaseExists = 1801
	errObjectExists   = 2714
	defaultPort       = 1433
)

// Dialect implements storage.Dialect for SQL Server.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func init() {
	storage.Register(Dialect{})
}

func (Dialect) Name() string       { return "mssql" }
func (Dialect) DriverName() string { return "sqlserver" }

// DSN builds a sqlserver:// URL; database selects the initial catalog.
func (Dialect) DSN(c storage.ConnConfig, database string) (string, error) {
	if c.User == "" {
		return "", fmt.Errorf("mssql: user must not be empty")
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	q := url.Values{}
	if database != "" {
		q.Set("database", database)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// QuoteIdent brackets name and escapes closing brackets.
func (Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ColumnType maps text to NVARCHAR(4000) rather than NVARCHAR(MAX) so the
// report can GROUP BY the type column.
func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt:
		return "INT"
	case ddl.KindBigInt:
		return "BIGINT"
	case ddl.KindBool:
		return "BIT"
	case ddl.KindText:
		return "NVARCHAR(4000)"
	}
	return ""
}

func (d Dialect) CreateDatabaseSQL(name string) string {
	return "CREATE DATABASE " + d.QuoteIdent(name)
}

func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (Dialect) IsDatabaseExists(err error) bool { return hasNumber(err, errDatabaseExists) }
func (Dialect) IsTableExists(err error) bool    { return hasNumber(err, errObjectExists) }

// ReportSQL repeats the day expression in GROUP BY: SQL Server does not
// accept select-list aliases there.
func (d Dialect) ReportSQL(table string) string {
	day := fmt.Sprintf("CAST(DATEADD(SECOND, %s / 1000, '19700101') AS DATE)", d.QuoteIdent("createdAt"))
	return fmt.Sprintf(
		"SELECT %[1]s, %[2]s AS day, COUNT(*) AS num_engagements "+
			"FROM %[3]s GROUP BY %[1]s, %[2]s ORDER BY %[1]s, day ASC",
		d.QuoteIdent("type"), day, d.QuoteIdent(table),
	)
}

func hasNumber(err error, n int32) bool {
	var me mssql.Error
	return errors.As(err, &me) && me.Number == n
}
