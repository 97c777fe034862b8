package importer

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonsonwune/lmsconnector/models"
)

func TestEveryEntityHasAMapping(t *testing.T) {
	for _, e := range models.Entities() {
		m, ok := mappings[e]
		require.True(t, ok, e)
		assert.NotNil(t, m.normalize, e)
		assert.NotEmpty(t, m.required, e)

		n, ok := NormalizerFor(e)
		assert.True(t, ok)
		assert.NotNil(t, n)
	}
}

func TestNormalizeStudent(t *testing.T) {
	rec, rej := normalizeStudent(RawRow{
		"code_module":          "AAA",
		"code_presentation":    "2013J",
		"id_student":           " 11391 ",
		"gender":               "M",
		"region":               "East Anglian Region",
		"highest_education":    "HE Qualification",
		"imd_band":             "90-100%",
		"age_band":             "55<=",
		"num_of_prev_attempts": "0",
		"studied_credits":      "240",
		"disability":           "",
		"final_result":         "Pass",
	})
	require.Nil(t, rej)

	s := rec.(*models.Student)
	assert.Equal(t, int64(11391), s.StudentID)
	assert.Equal(t, sql.NullString{String: "90-100%", Valid: true}, s.IMDBand)
	assert.Equal(t, sql.NullInt64{Int64: 240, Valid: true}, s.StudiedCredits)
	assert.False(t, s.Disability.Valid)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name   string
		norm   Normalizer
		row    RawRow
		reason Reason
		field  string
	}{
		{
			name:   "blank student id",
			norm:   normalizeRegistration,
			row:    RawRow{"id_student": " ", "code_module": "AAA", "code_presentation": "2013J"},
			reason: ReasonMissingKey,
			field:  "id_student",
		},
		{
			name:   "absent column",
			norm:   normalizeCourse,
			row:    RawRow{"code_module": "AAA"},
			reason: ReasonMissingKey,
			field:  "code_presentation",
		},
		{
			name:   "non numeric key",
			norm:   normalizeAssessmentSubmission,
			row:    RawRow{"id_assessment": "1752", "id_student": "abc"},
			reason: ReasonBadNumber,
			field:  "id_student",
		},
		{
			name: "unparsable key date",
			norm: normalizeVleActivity,
			row: RawRow{
				"code_module": "AAA", "code_presentation": "2013J",
				"id_student": "28400", "id_site": "546652", "date": "yesterday",
			},
			reason: ReasonBadDate,
			field:  "date",
		},
		{
			name:   "separator in key text",
			norm:   normalizeCourse,
			row:    RawRow{"code_module": "A\x1fA", "code_presentation": "2013J"},
			reason: ReasonMissingKey,
			field:  "code_module",
		},
		{
			name:   "first failing key wins",
			norm:   normalizeVleInfo,
			row:    RawRow{"id_site": "", "code_module": ""},
			reason: ReasonMissingKey,
			field:  "id_site",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, rej := tt.norm(tt.row)
			assert.Nil(t, rec)
			require.NotNil(t, rej)
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.field, rej.Field)
		})
	}
}

func TestOptionalFieldsBecomeNull(t *testing.T) {
	rec, rej := normalizeAssessment(RawRow{
		"code_module":   "AAA",
		"id_assessment": "1752",
		"date":          "not a date",
		"weight":        "heavy",
	})
	require.Nil(t, rej)

	a := rec.(*models.Assessment)
	assert.False(t, a.CodePresentation.Valid)
	assert.False(t, a.AssessmentDate.Valid)
	assert.False(t, a.Weight.Valid)
	assert.Equal(t, []string{"AAA", "1752"}, a.Key())
}

func TestNormalizeActivityUsesDayOffsets(t *testing.T) {
	rec, rej := normalizeVleActivity(RawRow{
		"code_module": "AAA", "code_presentation": "2013J",
		"id_student": "28400", "id_site": "546652", "date": "-10", "sum_click": "4",
	})
	require.NotNil(t, rej)
	assert.Equal(t, ReasonBadDate, rej.Reason)
	assert.Nil(t, rec)

	rec, rej = normalizeVleActivity(RawRow{
		"code_module": "AAA", "code_presentation": "2013J",
		"id_student": "28400", "id_site": "546652", "date": "10", "sum_click": "4",
	})
	require.Nil(t, rej)
	v := rec.(*models.VleActivity)
	assert.Equal(t, "1970-01-11", v.ActivityDate)
	assert.Equal(t, int64(546652), v.SiteID)
	assert.Equal(t, sql.NullInt64{Int64: 4, Valid: true}, v.SumClick)
}

func TestNormalizeSubmission(t *testing.T) {
	rec, rej := normalizeAssessmentSubmission(RawRow{
		"id_assessment": "1752", "id_student": "11391",
		"date_submitted": "18", "is_banked": "0", "score": "78",
	})
	require.Nil(t, rej)
	s := rec.(*models.AssessmentSubmission)
	assert.Equal(t, sql.NullString{String: "1970-01-19", Valid: true}, s.DateSubmitted)
	assert.Equal(t, sql.NullFloat64{Float64: 78, Valid: true}, s.Score)
}

func TestOptionalValuesOutsideColumnLimits(t *testing.T) {
	rec, rej := normalizeVleActivity(RawRow{
		"code_module": "AAA", "code_presentation": "2013J",
		"id_student": "28400", "id_site": "546652", "date": "3", "sum_click": "99999999999",
	})
	require.Nil(t, rej)
	assert.False(t, rec.(*models.VleActivity).SumClick.Valid)

	rec, rej = normalizeVleActivity(RawRow{
		"code_module": "AAA", "code_presentation": "2013J",
		"id_student": "28400", "id_site": "546652", "date": "3", "sum_click": "2147483647",
	})
	require.Nil(t, rej)
	assert.Equal(t, sql.NullInt64{Int64: 2147483647, Valid: true}, rec.(*models.VleActivity).SumClick)

	rec, rej = normalizeAssessmentSubmission(RawRow{
		"id_assessment": "1752", "id_student": "11391", "is_banked": "40000", "date_submitted": "0000-01-01",
	})
	require.Nil(t, rej)
	s := rec.(*models.AssessmentSubmission)
	assert.False(t, s.IsBanked.Valid)
	assert.False(t, s.DateSubmitted.Valid)

	rec, rej = normalizeStudent(RawRow{
		"id_student": "11391", "code_module": "AAA", "code_presentation": "2013J",
		"gender": "Male", "disability": "N", "imd_band": "90-100% of the most deprived areas",
	})
	require.Nil(t, rej)
	st := rec.(*models.Student)
	assert.False(t, st.Gender.Valid)
	assert.False(t, st.IMDBand.Valid)
	assert.Equal(t, sql.NullString{String: "N", Valid: true}, st.Disability)
}

func TestKeyValuesOutsideColumnLimits(t *testing.T) {
	tests := []struct {
		name   string
		norm   Normalizer
		row    RawRow
		reason Reason
		field  string
	}{
		{
			name: "year zero activity date",
			norm: normalizeVleActivity,
			row: RawRow{
				"code_module": "AAA", "code_presentation": "2013J",
				"id_student": "28400", "id_site": "546652", "date": "0000-01-01",
			},
			reason: ReasonBadDate,
			field:  "date",
		},
		{
			name:   "student id beyond bigint",
			norm:   normalizeRegistration,
			row:    RawRow{"id_student": "99999999999999999999", "code_module": "AAA", "code_presentation": "2013J"},
			reason: ReasonBadNumber,
			field:  "id_student",
		},
		{
			name:   "code too long",
			norm:   normalizeCourse,
			row:    RawRow{"code_module": strings.Repeat("A", 46), "code_presentation": "2013J"},
			reason: ReasonMissingKey,
			field:  "code_module",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, rej := tt.norm(tt.row)
			assert.Nil(t, rec)
			require.NotNil(t, rej)
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.field, rej.Field)
		})
	}
}
