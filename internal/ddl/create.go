// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// renderer for simple CREATE TABLE statements.
//
// The package does not know any SQL dialect. Identifier quoting and type
// mapping are supplied by a Renderer, which every storage dialect implements.
package ddl

import (
	"fmt"
	"strings"
)

// Renderer supplies the dialect-specific parts of a CREATE TABLE statement.
type Renderer interface {
	// QuoteIdent quotes a single identifier (table or column name).
	QuoteIdent(name string) string
	// ColumnType maps a logical kind to a SQL type. An empty result means the
	// kind is not supported.
	ColumnType(k Kind) string
}

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// A column is rendered as:
//
//	<name> <type> [NOT NULL]
//
// Primary key columns are collected into a trailing PRIMARY KEY (...) clause.
// The statement does not carry IF NOT EXISTS: callers drop the table first and
// treat "already exists" as a race.
func BuildCreateTableSQL(r Renderer, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		cname := strings.TrimSpace(c.Name)
		if cname == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := r.ColumnType(c.Kind)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s has unsupported kind %q", cname, c.Kind)
		}

		var sb strings.Builder
		sb.WriteString(r.QuoteIdent(cname))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, r.QuoteIdent(cname))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		r.QuoteIdent(name),
		strings.Join(cols, ",\n  "),
	), nil
}
