package migrations

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonsonwune/lmsconnector/models"
)

func TestSchemaCoversEveryEntity(t *testing.T) {
	ddl := Schema()
	for _, e := range models.Entities() {
		schema, ok := models.Lookup(e)
		require.True(t, ok)

		block := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + schema.Table + ` \((.*?)\n\);`).FindStringSubmatch(ddl)
		require.NotNil(t, block, schema.Table)

		for _, col := range schema.Columns {
			assert.Regexp(t, `(?m)^\s+`+col+`\s`, block[1], "%s.%s", schema.Table, col)
		}
		assert.Contains(t, block[1], "UNIQUE ("+strings.Join(schema.Key, ", ")+")", schema.Table)
	}
}

func TestMissingColumns(t *testing.T) {
	assert.Empty(t, missingColumns([]string{"a", "b"}, []string{"b", "a", "c"}))
	assert.Equal(t, []string{"b"}, missingColumns([]string{"a", "b"}, []string{"a"}))
}

func TestKeyConstraint(t *testing.T) {
	indexes := []uniqueIndex{
		{Name: "learning_logs_pkey", Columns: "id"},
		{Name: "learning_logs_natural_key", Columns: "activity_date,code_module,code_presentation,id_site,student_id"},
	}
	schema, _ := models.Lookup(models.EntityVleActivity)
	assert.Equal(t, "learning_logs_natural_key", keyConstraint(schema.Key, indexes))

	assert.Empty(t, keyConstraint([]string{"code_module", "student_id"}, indexes))
}

func TestTableStatusProblem(t *testing.T) {
	s := TableStatus{Entity: models.EntityCourse, Table: "courses"}
	assert.False(t, s.OK())
	assert.Contains(t, s.Problem(), "does not exist")

	s.Exists = true
	s.MissingColumns = []string{"module_presentation_length"}
	assert.Contains(t, s.Problem(), "missing columns: module_presentation_length")

	s.MissingColumns = nil
	assert.Equal(t, "table courses has no unique constraint on (code_module, code_presentation)", s.Problem())

	s.KeyConstraint = "courses_natural_key"
	assert.True(t, s.OK())
	assert.Empty(t, s.Problem())
}
