package migrations

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nonsonwune/lmsconnector/models"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the reference DDL for every entity table.
func Schema() string { return schemaSQL }

// TableStatus is the verification result for one entity table.
type TableStatus struct {
	Entity         models.Entity
	Table          string
	Exists         bool
	MissingColumns []string
	KeyConstraint  string // name of the unique index covering the natural key
}

// OK reports whether the table can take loads.
func (s TableStatus) OK() bool {
	return s.Exists && len(s.MissingColumns) == 0 && s.KeyConstraint != ""
}

func (s TableStatus) Problem() string {
	switch {
	case !s.Exists:
		return fmt.Sprintf("required table %s does not exist", s.Table)
	case len(s.MissingColumns) > 0:
		return fmt.Sprintf("table %s is missing columns: %s", s.Table, strings.Join(s.MissingColumns, ", "))
	case s.KeyConstraint == "":
		return fmt.Sprintf("table %s has no unique constraint on (%s)", s.Table, strings.Join(mustSchema(s.Entity).Key, ", "))
	}
	return ""
}

type uniqueIndex struct {
	Name    string `db:"name"`
	Columns string `db:"columns"`
}

const tableExistsQuery = `
	SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_name = $1
	)`

const columnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema()
	AND table_name = $1`

const uniqueIndexesQuery = `
	SELECT i.indexrelid::regclass::text AS name,
	       string_agg(a.attname, ',' ORDER BY a.attname) AS columns
	FROM pg_index i
	JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
	WHERE i.indrelid = $1::regclass AND i.indisunique
	GROUP BY i.indexrelid`

// CheckSchema inspects every entity table.
func CheckSchema(ctx context.Context, db *sqlx.DB) ([]TableStatus, error) {
	var out []TableStatus
	for _, e := range models.Entities() {
		schema := mustSchema(e)
		status := TableStatus{Entity: e, Table: schema.Table}

		if err := db.GetContext(ctx, &status.Exists, tableExistsQuery, schema.Table); err != nil {
			return nil, fmt.Errorf("checking table %s: %w", schema.Table, err)
		}
		if !status.Exists {
			out = append(out, status)
			continue
		}

		var columns []string
		if err := db.SelectContext(ctx, &columns, columnsQuery, schema.Table); err != nil {
			return nil, fmt.Errorf("listing columns of %s: %w", schema.Table, err)
		}
		status.MissingColumns = missingColumns(schema.Columns, columns)

		var indexes []uniqueIndex
		if err := db.SelectContext(ctx, &indexes, uniqueIndexesQuery, schema.Table); err != nil {
			return nil, fmt.Errorf("listing unique indexes of %s: %w", schema.Table, err)
		}
		status.KeyConstraint = keyConstraint(schema.Key, indexes)

		out = append(out, status)
	}
	return out, nil
}

// VerifySchema fails on the first entity table that cannot take loads.
func VerifySchema(ctx context.Context, db *sqlx.DB) error {
	statuses, err := CheckSchema(ctx, db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		if !s.OK() {
			return fmt.Errorf("%s", s.Problem())
		}
	}
	return nil
}

func missingColumns(want, have []string) []string {
	present := make(map[string]bool, len(have))
	for _, c := range have {
		present[c] = true
	}
	var missing []string
	for _, c := range want {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// keyConstraint finds a unique index over exactly the key columns.
func keyConstraint(key []string, indexes []uniqueIndex) string {
	sorted := append([]string(nil), key...)
	sort.Strings(sorted)
	want := strings.Join(sorted, ",")
	for _, idx := range indexes {
		if idx.Columns == want {
			return idx.Name
		}
	}
	return ""
}

func mustSchema(e models.Entity) models.Schema {
	s, ok := models.Lookup(e)
	if !ok {
		panic(fmt.Sprintf("no schema for entity %q", e))
	}
	return s
}
