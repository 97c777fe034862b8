package importer

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/nonsonwune/lmsconnector/config"
	"github.com/nonsonwune/lmsconnector/models"
	"github.com/nonsonwune/lmsconnector/store"
)

// RecordSource yields normalized records in input order. Next returns io.EOF
// once the source is drained.
type RecordSource interface {
	Next(ctx context.Context) (models.Record, error)
}

type sliceSource struct {
	records []models.Record
	pos     int
}

// SliceSource wraps an in-memory list of records.
func SliceSource(records []models.Record) RecordSource {
	return &sliceSource{records: records}
}

func (s *sliceSource) Next(ctx context.Context) (models.Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// BatchResult counts what a batch load sent and what the store kept.
type BatchResult struct {
	Batches  int
	Rows     int   // rows sent in committed statements
	Inserted int64 // rows the store reported as new
}

// Skipped returns the committed rows the store already held.
func (r BatchResult) Skipped() int64 {
	return int64(r.Rows) - r.Inserted
}

// BatchLoader writes records as bounded multi-row INSERT statements. Each
// statement commits on its own; the first failure stops the load and earlier
// batches stay committed.
type BatchLoader struct {
	session store.Session
	table   string
	columns []string
	size    int
}

// NewBatchLoader clamps size to 1..config.MaxBatchSize and to the statement
// parameter limit for the schema's width.
func NewBatchLoader(session store.Session, schema models.Schema, size int) *BatchLoader {
	if size <= 0 {
		size = config.DefaultBatchSize
	}
	if size > config.MaxBatchSize {
		size = config.MaxBatchSize
	}
	if limit := store.MaxRowsPerInsert(len(schema.Columns)); size > limit {
		size = limit
	}
	return &BatchLoader{
		session: session,
		table:   schema.Table,
		columns: schema.Columns,
		size:    size,
	}
}

// Size returns the effective rows per statement.
func (b *BatchLoader) Size() int { return b.size }

// Load drains src. Errors from src are returned unchanged; store failures
// come back as a LOAD_FAILED ImportError.
func (b *BatchLoader) Load(ctx context.Context, src RecordSource) (BatchResult, error) {
	var res BatchResult
	fullStmt := store.InsertStatement(b.table, b.columns, b.size)
	pending := make([]models.Record, 0, b.size)
	args := make([]any, 0, b.size*len(b.columns))

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		stmt := fullStmt
		if len(pending) < b.size {
			stmt = store.InsertStatement(b.table, b.columns, len(pending))
		}
		args = args[:0]
		for _, rec := range pending {
			args = append(args, rec.Values()...)
		}

		n, err := b.session.Exec(ctx, stmt, args...)
		if err != nil {
			return &ImportError{
				Code:     CodeLoadFailed,
				Message:  fmt.Sprintf("batch %d (%d rows) failed", res.Batches+1, len(pending)),
				Table:    b.table,
				SQLState: store.SQLState(err),
				Err:      err,
			}
		}
		res.Batches++
		res.Rows += len(pending)
		res.Inserted += n
		if int64(len(pending)) != n {
			log.Printf("%s: batch %d inserted %d of %d rows", b.table, res.Batches, n, len(pending))
		}
		pending = pending[:0]
		return nil
	}

	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		pending = append(pending, rec)
		if len(pending) == b.size {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}

// LoadBatches loads records into the schema's table in statements of at most
// batchSize rows.
func LoadBatches(ctx context.Context, session store.Session, schema models.Schema, records []models.Record, batchSize int) (BatchResult, error) {
	return NewBatchLoader(session, schema, batchSize).Load(ctx, SliceSource(records))
}
