package store

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestInsertStatement(t *testing.T) {
	got := InsertStatement("courses", []string{"code_module", "code_presentation"}, 2)
	assert.Equal(t,
		`INSERT INTO "courses" ("code_module", "code_presentation") VALUES ($1,$2),($3,$4) ON CONFLICT DO NOTHING`,
		got)
}

func TestMaxRowsPerInsert(t *testing.T) {
	assert.Equal(t, 5461, MaxRowsPerInsert(12))
	assert.Equal(t, 65535, MaxRowsPerInsert(1))
	assert.Equal(t, 0, MaxRowsPerInsert(0))
}

func TestBulkStatements(t *testing.T) {
	cols := []string{"id_assessment", "student_id"}

	assert.Equal(t,
		`CREATE TEMP TABLE "lms_stage_student_assessments" (LIKE "student_assessments" INCLUDING DEFAULTS) ON COMMIT DROP`,
		createStagingSQL("student_assessments"))
	assert.Equal(t,
		`COPY "lms_stage_student_assessments" ("id_assessment", "student_id") FROM STDIN WITH (FORMAT csv)`,
		copySQL("student_assessments", cols))
	assert.Equal(t,
		`INSERT INTO "student_assessments" ("id_assessment", "student_id") SELECT "id_assessment", "student_id" FROM "lms_stage_student_assessments" ON CONFLICT DO NOTHING`,
		mergeSQL("student_assessments", cols))
}

func TestSQLState(t *testing.T) {
	assert.Equal(t, "23502", SQLState(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23502"})))
	assert.Equal(t, "08006", SQLState(&pgconn.PgError{Code: "08006"}))
	assert.Empty(t, SQLState(fmt.Errorf("plain")))
}

func TestTextColumns(t *testing.T) {
	assert.Equal(t,
		`"student_id"::text AS "student_id", "activity_date"::text AS "activity_date"`,
		textColumns([]string{"student_id", "activity_date"}))
}
