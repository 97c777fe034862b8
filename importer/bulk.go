package importer

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nonsonwune/lmsconnector/models"
	"github.com/nonsonwune/lmsconnector/store"
)

// formatValue renders one column value as a COPY CSV field. NULL becomes the
// empty field; normalization never produces empty text for a present value.
func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case sql.NullString:
		if !x.Valid {
			return "", nil
		}
		return x.String, nil
	case sql.NullInt64:
		if !x.Valid {
			return "", nil
		}
		return strconv.FormatInt(x.Int64, 10), nil
	case sql.NullFloat64:
		if !x.Valid {
			return "", nil
		}
		return strconv.FormatFloat(x.Float64, 'f', -1, 64), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", err
		}
		return formatValue(dv)
	}
	return "", fmt.Errorf("unsupported column value %T", v)
}

// stageWriter serializes records as header-less CSV lines in column order.
type stageWriter struct {
	w      *csv.Writer
	fields []string
	rows   int
}

func newStageWriter(w io.Writer, columns int) *stageWriter {
	return &stageWriter{w: csv.NewWriter(w), fields: make([]string, columns)}
}

func (s *stageWriter) Write(rec models.Record) error {
	values := rec.Values()
	if len(values) != len(s.fields) {
		return fmt.Errorf("%s record has %d values, want %d", rec.Entity(), len(values), len(s.fields))
	}
	for i, v := range values {
		f, err := formatValue(v)
		if err != nil {
			return err
		}
		s.fields[i] = f
	}
	if err := s.w.Write(s.fields); err != nil {
		return err
	}
	s.rows++
	return nil
}

func (s *stageWriter) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

// BulkLoader loads a whole run through one COPY stream that commits or fails
// as a unit.
type BulkLoader struct {
	session store.Session
	table   string
	columns []string
}

func NewBulkLoader(session store.Session, schema models.Schema) *BulkLoader {
	return &BulkLoader{session: session, table: schema.Table, columns: schema.Columns}
}

// Stage drains src into w as COPY CSV and returns the number of lines written.
// Errors from src are returned unchanged.
func (b *BulkLoader) Stage(ctx context.Context, src RecordSource, w io.Writer) (int, error) {
	sw := newStageWriter(w, len(b.columns))
	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return sw.rows, err
		}
		if err := sw.Write(rec); err != nil {
			return sw.rows, newError(CodeStagingFailed, "writing staging line", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return sw.rows, newError(CodeStagingFailed, "flushing staging file", err)
	}
	return sw.rows, nil
}

// Load streams staged lines into the table and returns the rows inserted.
// Rows whose key already exists are skipped, so repeating a load is harmless.
func (b *BulkLoader) Load(ctx context.Context, r io.Reader) (int64, error) {
	n, err := b.session.CopyFrom(ctx, b.table, b.columns, r)
	if err != nil {
		return 0, &ImportError{
			Code:     CodeLoadFailed,
			Message:  "bulk copy failed",
			Table:    b.table,
			SQLState: store.SQLState(err),
			Err:      err,
		}
	}
	return n, nil
}
