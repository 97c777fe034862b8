package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres is the lib/pq backed store.
type Postgres struct {
	reader
}

// OpenPostgres opens a lib/pq pool and verifies it answers.
func OpenPostgres(ctx context.Context, dsn string, maxConns int) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{reader{db: db}}, nil
}

func (p *Postgres) Acquire(ctx context.Context) (Session, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &pqSession{conn: conn}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type pqSession struct {
	conn *sqlx.Conn
}

func (s *pqSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CopyFrom feeds the CSV stream through pq.CopyIn. lib/pq encodes the COPY
// wire format itself, so each line is split back into fields first.
func (s *pqSession) CopyFrom(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createStagingSQL(table)); err != nil {
		return 0, fmt.Errorf("creating staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(stagingTable(table), columns...))
	if err != nil {
		return 0, fmt.Errorf("opening copy: %w", err)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	cr.ReuseRecord = true
	args := make([]any, len(columns))
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stmt.Close()
			return 0, fmt.Errorf("reading copy stream: %w", err)
		}
		for i, f := range fields {
			if f == "" {
				args[i] = nil
			} else {
				args[i] = f
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("copying row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("finishing copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("closing copy: %w", err)
	}

	res, err := tx.ExecContext(ctx, mergeSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("merging staged rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing copy: %w", err)
	}
	return n, nil
}

func (s *pqSession) Release() {
	if s.conn == nil {
		return
	}
	s.conn.Close()
	s.conn = nil
}
