package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nonsonwune/lmsconnector/models"
)

// MaxPageSize caps List so a page of learning logs stays in memory.
const MaxPageSize = 20000

type reader struct {
	db *sqlx.DB
}

func (r reader) DB() *sqlx.DB { return r.db }

func (r reader) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table)
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// textColumns selects every column as text so dates scan back in ISO form.
func textColumns(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		q := pq.QuoteIdentifier(c)
		out[i] = q + "::text AS " + q
	}
	return strings.Join(out, ", ")
}

// List returns one page of entity rows ordered by natural key.
func (r reader) List(ctx context.Context, entity models.Entity, limit, offset int) ([]models.Record, error) {
	schema, ok := models.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %q", entity)
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	keys := make([]string, len(schema.Key))
	for i, k := range schema.Key {
		keys[i] = pq.QuoteIdentifier(k)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1 OFFSET $2",
		textColumns(schema.Columns), pq.QuoteIdentifier(schema.Table), strings.Join(keys, ", "))

	rows, err := r.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", schema.Table, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := models.New(entity)
		if err != nil {
			return nil, err
		}
		if err := rows.StructScan(rec); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", schema.Table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
