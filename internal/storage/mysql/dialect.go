// Package mysql registers the MySQL dialect with the storage registry. It is
// the production backend: the engagements table and the report query follow
// MySQL syntax (backtick identifiers, FROM_UNIXTIME).
package mysql

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// MySQL server error numbers the schema initializer tolerates.
const (
	errDBCreateExists = 1007 // ER_DB_CREATE_EXISTS
	errTableExists    = 1050 // ER_TABLE_EXISTS_ERROR
)

const (
	defaultPort    = 3306
	defaultCharset = "utf8"
)

// Dialect implements storage.Dialect for MySQL.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func init() {
	storage.Register(Dialect{})
}

func (Dialect) Name() string       { return "mysql" }
func (Dialect) DriverName() string { return "mysql" }

// DSN builds a go-sql-driver DSN. An empty password is allowed (the local
// root account has none).
func (Dialect) DSN(c storage.ConnConfig, database string) (string, error) {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	if c.User == "" {
		return "", fmt.Errorf("mysql: user must not be empty")
	}

	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	return cfg.FormatDSN(), nil
}

func (Dialect) Placeholder(int) string { return "?" }

// QuoteIdent wraps name in backticks, doubling embedded backticks.
func (Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt:
		return "int"
	case ddl.KindBigInt:
		return "bigint"
	case ddl.KindBool:
		return "boolean"
	case ddl.KindText:
		return "text"
	}
	return ""
}

func (d Dialect) CreateDatabaseSQL(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s DEFAULT CHARACTER SET '%s'", d.QuoteIdent(name), defaultCharset)
}

func (d Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}

func (Dialect) IsDatabaseExists(err error) bool { return hasNumber(err, errDBCreateExists) }
func (Dialect) IsTableExists(err error) bool    { return hasNumber(err, errTableExists) }

func (d Dialect) ReportSQL(table string) string {
	return fmt.Sprintf(
		"SELECT %[1]s, DATE(FROM_UNIXTIME(%[2]s/1000)) AS day, COUNT(*) AS num_engagements "+
			"FROM %[3]s GROUP BY %[1]s, day ORDER BY %[1]s, day ASC",
		d.QuoteIdent("type"), d.QuoteIdent("createdAt"), d.QuoteIdent(table),
	)
}

func hasNumber(err error, n uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == n
}
