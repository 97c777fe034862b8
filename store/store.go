// Package store is the store-access capability the importer depends on: a
// pool of PostgreSQL sessions that can execute parameterized statements and
// accept a bulk COPY stream.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/nonsonwune/lmsconnector/models"
)

// Session is one pooled connection, held by a single import run.
type Session interface {
	// Exec runs a parameterized statement and returns the affected row count.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// CopyFrom streams CSV lines (fields in columns order, empty unquoted
	// field = NULL) into table. The stream commits as a unit; rows whose
	// natural key already exists are skipped. It returns the rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, r io.Reader) (int64, error)

	// Release returns the connection to the pool. Safe to call once.
	Release()
}

// Store hands out sessions and answers read-back queries.
type Store interface {
	Acquire(ctx context.Context) (Session, error)
	Count(ctx context.Context, table string) (int64, error)
	List(ctx context.Context, entity models.Entity, limit, offset int) ([]models.Record, error)
	DB() *sqlx.DB
	Close() error
}

// Open connects using the named driver backend.
func Open(ctx context.Context, driver, dsn string, maxConns int) (Store, error) {
	switch driver {
	case "", "postgres":
		return OpenPostgres(ctx, dsn, maxConns)
	case "pgx":
		return OpenPgx(ctx, dsn, maxConns)
	}
	return nil, fmt.Errorf("unsupported store driver: %s", driver)
}
