package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeadersExact(t *testing.T) {
	m, err := mapHeaders(
		[]string{"code_module", "code_presentation", "id_student", "date_registration"},
		[]string{"id_student", "code_module", "code_presentation"},
		[]string{"date_registration", "date_unregistration"},
	)
	require.NoError(t, err)
	assert.False(t, m.renamed())
	_, ok := m["date_unregistration"]
	assert.False(t, ok)
}

func TestMapHeadersLoose(t *testing.T) {
	m, err := mapHeaders(
		[]string{"Code Module", "CODE_PRESENTATION", "idstudent"},
		[]string{"id_student", "code_module", "code_presentation"},
		nil,
	)
	require.NoError(t, err)
	assert.True(t, m.renamed())

	row := m.apply(RawRow{"Code Module": "AAA", "CODE_PRESENTATION": "2013J", "idstudent": "7"})
	assert.Equal(t, "AAA", row["code_module"])
	assert.Equal(t, "2013J", row["code_presentation"])
	assert.Equal(t, "7", row["id_student"])
}

func TestMapHeadersMissing(t *testing.T) {
	_, err := mapHeaders(
		[]string{"code_module", "code_presentation", "id_studnet_x"},
		[]string{"id_student", "code_module", "code_presentation"},
		nil,
	)
	require.Error(t, err)
	assert.Equal(t, CodeHeaderInvalid, ErrorCode(err))
	assert.Contains(t, err.Error(), "id_student")
	assert.Contains(t, err.Error(), `did you mean "id_studnet_x"?`)

	_, err = mapHeaders([]string{"foo"}, []string{"id_site"}, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("idsite", "idsite"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, levenshteinDistance("", "date"))
}
