package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// MaxBindParams is the PostgreSQL limit on parameters in one statement.
const MaxBindParams = 65535

const stagingPrefix = "lms_stage_"

// MaxRowsPerInsert returns how many rows of width columns fit in one statement.
func MaxRowsPerInsert(columns int) int {
	if columns <= 0 {
		return 0
	}
	return MaxBindParams / columns
}

// InsertStatement builds a multi-row INSERT for rows rows that silently skips
// rows conflicting with an existing unique key.
func InsertStatement(table string, columns []string, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pq.QuoteIdentifier(table), quoteColumns(columns))

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String()
}

func stagingTable(table string) string {
	return stagingPrefix + table
}

func createStagingSQL(table string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pq.QuoteIdentifier(stagingTable(table)), pq.QuoteIdentifier(table))
}

func copySQL(table string, columns []string) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)",
		pq.QuoteIdentifier(stagingTable(table)), quoteColumns(columns))
}

func mergeSQL(table string, columns []string) string {
	cols := quoteColumns(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT DO NOTHING",
		pq.QuoteIdentifier(table), cols, cols, pq.QuoteIdentifier(stagingTable(table)))
}

func quoteColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// SQLState extracts the SQLSTATE code from either driver's error type.
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
