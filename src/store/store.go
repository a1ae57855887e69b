// Package store provides the persistence accessors for the ledger. Every
// store holds an explicit *sql.DB handle; there is no shared package-level
// connection, so tests can run against isolated in-memory instances.
package store

import (
	"database/sql"
	"strings"

	"github.com/username/folioledger/backend/src/apperrors"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// read helpers can run both standalone and inside a unit of work.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// mapConstraintErr translates sqlite constraint failures into the engine's
// error taxonomy. Uniqueness violations become Conflict; anything else the
// store rejected despite passing application checks is an Integrity error
// worth investigating, not swallowing.
func mapConstraintErr(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return apperrors.Wrap(apperrors.KindConflict, conflictMsg, err)
	}
	if strings.Contains(msg, "constraint failed") {
		return apperrors.Wrap(apperrors.KindIntegrity, "the database rejected the write", err)
	}
	return err
}
