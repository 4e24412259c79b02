package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Row is a schema-less record: column name to value. Column lists are derived
// from each row's own keys, so rows with different key sets produce
// differently shaped INSERT statements.
type Row map[string]any

// Columns returns the row's keys in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// InsertSQL builds the INSERT statement for row and the matching argument
// list. Identifiers are quoted by the dialect; values are always bound
// parameters.
func InsertSQL(d Dialect, table string, row Row) (string, []any) {
	cols := row.Columns()
	return insertStmt(d, table, cols), rowArgs(row, cols)
}

func insertStmt(d Dialect, table string, cols []string) string {
	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdent(c)
		placeholders[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
	)
}

func rowArgs(row Row, cols []string) []any {
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	return args
}

// WriteRows inserts every row into table inside one transaction and commits
// once at the end. Statements are prepared once per distinct column set.
//
// Keys are not checked against the table: an unknown column makes the
// database reject the statement. Any failure rolls the whole batch back, so
// nothing from the call is persisted and the count is 0.
func (db *DB) WriteRows(ctx context.Context, table string, rows []Row) (int64, error) {
	if strings.TrimSpace(table) == "" {
		return 0, fmt.Errorf("%s: WriteRows: table must not be empty", db.dialect.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", db.dialect.Name(), err)
	}

	stmts := map[string]*sql.Stmt{}
	closeStmts := func() {
		for _, s := range stmts {
			_ = s.Close()
		}
	}
	fail := func(err error) error {
		closeStmts()
		_ = tx.Rollback()
		return err
	}

	var inserted int64
	for i, row := range rows {
		if len(row) == 0 {
			return 0, fail(fmt.Errorf("%s: row %d has no columns", db.dialect.Name(), i))
		}
		cols := row.Columns()
		key := strings.Join(cols, "\x00")

		stmt, ok := stmts[key]
		if !ok {
			query := insertStmt(db.dialect, table, cols)
			stmt, err = tx.PrepareContext(ctx, query)
			if err != nil {
				return 0, fail(fmt.Errorf("%s: prepare %q: %w", db.dialect.Name(), query, err))
			}
			stmts[key] = stmt
		}

		if _, err := stmt.ExecContext(ctx, rowArgs(row, cols)...); err != nil {
			return 0, fail(fmt.Errorf("%s: insert row %d into %s: %w", db.dialect.Name(), i, table, err))
		}
		inserted++
	}

	closeStmts()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", db.dialect.Name(), err)
	}
	return inserted, nil
}
