package store

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Pgx is the pgx backed store. COPY streams the CSV bytes straight to the
// server without re-parsing them.
type Pgx struct {
	reader
	pool *pgxpool.Pool
}

// OpenPgx opens a pgx pool. Read-back queries share it through database/sql.
func OpenPgx(ctx context.Context, dsn string, maxConns int) (*Pgx, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	return &Pgx{reader: reader{db: db}, pool: pool}, nil
}

func (p *Pgx) Acquire(ctx context.Context) (Session, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &pgxSession{conn: conn}, nil
}

func (p *Pgx) Close() error {
	err := p.db.Close()
	p.pool.Close()
	return err
}

type pgxSession struct {
	conn *pgxpool.Conn
}

func (s *pgxSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *pgxSession) CopyFrom(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createStagingSQL(table)); err != nil {
		return 0, fmt.Errorf("creating staging table: %w", err)
	}
	if _, err := tx.Conn().PgConn().CopyFrom(ctx, r, copySQL(table, columns)); err != nil {
		return 0, fmt.Errorf("copying rows: %w", err)
	}
	tag, err := tx.Exec(ctx, mergeSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("merging staged rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing copy: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *pgxSession) Release() {
	if s.conn == nil {
		return
	}
	s.conn.Release()
	s.conn = nil
}
