package importer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *CSVReader) ([]RawRow, []int) {
	t.Helper()
	var rows []RawRow
	var lines []int
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, lines
		}
		require.NoError(t, err)
		rows = append(rows, row)
		lines = append(lines, r.Line())
	}
}

func TestCSVReaderRows(t *testing.T) {
	path := writeCSV(t, "studentRegistration.csv",
		"\ufeffcode_module, code_presentation ,id_student,date_registration",
		"AAA,2013J,11391,-159",
		"",
		`AAA,2013J,"28,400",-53`,
	)

	r, err := OpenCSV(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"code_module", "code_presentation", "id_student", "date_registration"}, r.Headers())

	rows, lines := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, RawRow{
		"code_module":       "AAA",
		"code_presentation": "2013J",
		"id_student":        "11391",
		"date_registration": "-159",
	}, rows[0])
	assert.Equal(t, "28,400", rows[1]["id_student"])
	assert.Equal(t, []int{2, 4}, lines)
}

func TestCSVReaderRaggedLines(t *testing.T) {
	path := writeCSV(t, "courses.csv",
		"code_module,code_presentation,module_presentation_length",
		"AAA",
		"BBB,2014B,262,extra",
	)

	r, err := OpenCSV(path)
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	require.Len(t, rows, 2)

	_, ok := rows[0]["code_presentation"]
	assert.False(t, ok)
	assert.Equal(t, "AAA", rows[0]["code_module"])
	assert.Equal(t, RawRow{
		"code_module":                "BBB",
		"code_presentation":          "2014B",
		"module_presentation_length": "262",
	}, rows[1])
}

func TestOpenCSVErrors(t *testing.T) {
	_, err := OpenCSV("/nonexistent/file.csv")
	assert.Error(t, err)

	path := writeCSV(t, "empty.csv")
	_, err = OpenCSV(path)
	assert.Error(t, err)
}

func TestCSVReaderStrayQuoteSpoilsOneLine(t *testing.T) {
	path := writeCSV(t, "studentVle.csv",
		"code_module,code_presentation,id_student,id_site,date,sum_click",
		"AAA,2013J,1,546652,10,4",
		`AAA,"2013J,2,546652,11,4`,
		"AAA,2013J,3,546652,12,4",
		`AAA,2013J,"4",546652,13,4`,
	)

	r, err := OpenCSV(path)
	require.NoError(t, err)
	defer r.Close()

	var raws []string
	var rows []RawRow
	var lines []int
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
		lines = append(lines, r.Line())
		raws = append(raws, r.Raw())
	}

	require.Len(t, rows, 4)
	assert.Equal(t, []int{2, 3, 4, 5}, lines)
	assert.Empty(t, rows[1])
	assert.Equal(t, `AAA,"2013J,2,546652,11,4`, raws[1])
	assert.Equal(t, "3", rows[2]["id_student"])
	assert.Equal(t, "4", rows[3]["id_student"])
}

func TestCSVReaderCRLF(t *testing.T) {
	path := writeCSV(t, "courses.csv", "code_module,code_presentation\r\nAAA,2013J\r")

	r, err := OpenCSV(path)
	require.NoError(t, err)
	defer r.Close()

	rows, _ := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, RawRow{"code_module": "AAA", "code_presentation": "2013J"}, rows[0])
	assert.Equal(t, "AAA,2013J", r.Raw())
}
