package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
)

var (
	// ErrDatabaseExists wraps a backend's "database already exists" error.
	ErrDatabaseExists = errors.New("database already exists")
	// ErrTableExists wraps a backend's "table already exists" error.
	ErrTableExists = errors.New("table already exists")
)

// DB is a database handle bound to one dialect. The underlying pool is capped
// at a single open connection; the run shares that connection sequentially.
type DB struct {
	sql      *sql.DB
	dialect  Dialect
	database string
}

// Open looks up the dialect for c.Kind, opens a connection to database and
// pings it with a short timeout to fail fast on unreachable servers.
func Open(ctx context.Context, c ConnConfig, database string) (*DB, error) {
	d, err := Lookup(c.Kind)
	if err != nil {
		return nil, err
	}
	dsn, err := d.DSN(c, database)
	if err != nil {
		return nil, fmt.Errorf("%s: dsn: %w", d.Name(), err)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name(), err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping %q: %w", d.Name(), database, err)
	}

	return &DB{sql: db, dialect: d, database: database}, nil
}

// New wraps an already-open *sql.DB. Tests use it with in-memory databases.
func New(db *sql.DB, d Dialect) *DB {
	db.SetMaxOpenConns(1)
	return &DB{sql: db, dialect: d}
}

// Dialect returns the dialect the handle was opened with.
func (db *DB) Dialect() Dialect { return db.dialect }

// Database returns the database name passed to Open ("" for New).
func (db *DB) Database() string { return db.database }

// Close closes the underlying connection.
func (db *DB) Close() error { return db.sql.Close() }

// Exec executes a single statement and discards the result.
func (db *DB) Exec(ctx context.Context, query string, args ...any) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := db.sql.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// Query runs a query and returns the open rows; the caller must close them.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, query, args...)
}

// CreateDatabase creates the named database. It returns an error wrapping
// ErrDatabaseExists when the database is already there. Backends without
// databases return nil without doing anything (see SupportsDatabases).
func (db *DB) CreateDatabase(ctx context.Context, name string) error {
	stmt := db.dialect.CreateDatabaseSQL(name)
	if stmt == "" {
		return nil
	}
	if err := db.Exec(ctx, stmt); err != nil {
		if db.dialect.IsDatabaseExists(err) {
			return fmt.Errorf("%w: %s: %v", ErrDatabaseExists, name, err)
		}
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// SupportsDatabases reports whether the dialect has CREATE DATABASE.
func (db *DB) SupportsDatabases() bool {
	return db.dialect.CreateDatabaseSQL("x") != ""
}

// DropTable drops table if it exists.
func (db *DB) DropTable(ctx context.Context, table string) error {
	if err := db.Exec(ctx, db.dialect.DropTableSQL(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// CreateTable renders def for the dialect and executes it. It returns an
// error wrapping ErrTableExists when the table is already there.
func (db *DB) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmt, err := ddl.BuildCreateTableSQL(db.dialect, def)
	if err != nil {
		return err
	}
	if err := db.Exec(ctx, stmt); err != nil {
		if db.dialect.IsTableExists(err) {
			return fmt.Errorf("%w: %s: %v", ErrTableExists, def.Name, err)
		}
		return fmt.Errorf("create table %s: %w", def.Name, err)
	}
	return nil
}
