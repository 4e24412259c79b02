// Package schema prepares the destination database for an ingestion run:
// it ensures the database exists and drops and recreates each table, so a
// run always starts from empty, freshly shaped tables.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TheF1rstPancake/hubspot/internal/ddl"
	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// FatalError is returned for any schema failure other than the tolerated
// "already exists" conditions. The CLI exits with status 1 on it.
type FatalError struct {
	Op   string // "create database", "drop table", "create table"
	Name string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("Failed creating table: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// EnsureDatabase creates the named database on an admin connection. An
// existing database is logged as a warning and ignored. Dialects without
// databases skip the step.
func EnsureDatabase(ctx context.Context, db *storage.DB, name string, log zerolog.Logger) error {
	if !db.SupportsDatabases() {
		log.Debug().Str("dialect", db.Dialect().Name()).Msg("dialect has no databases; skipping create")
		return nil
	}

	err := db.CreateDatabase(ctx, name)
	switch {
	case err == nil:
		log.Info().Str("database", name).Msg("Created database")
		return nil
	case errors.Is(err, storage.ErrDatabaseExists):
		log.Warn().Str("database", name).Msgf("Warning database '%s' already exists.", name)
		return nil
	default:
		return &FatalError{Op: "create database", Name: name, Err: err}
	}
}

// RecreateTables drops and recreates every definition in order. DROP TABLE IF
// EXISTS is unconditional, so any error from it is fatal; a CREATE that races
// with another creator and finds the table present is logged and tolerated.
func RecreateTables(ctx context.Context, db *storage.DB, log zerolog.Logger, defs ...ddl.TableDef) error {
	for _, def := range defs {
		log.Info().Str("table", def.Name).Msgf("Creating table: %s", def.Name)

		if err := db.DropTable(ctx, def.Name); err != nil {
			return &FatalError{Op: "drop table", Name: def.Name, Err: err}
		}

		err := db.CreateTable(ctx, def)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrTableExists):
			log.Warn().Str("table", def.Name).Msg("Warning table already exists.")
		default:
			return &FatalError{Op: "create table", Name: def.Name, Err: err}
		}
	}
	return nil
}
